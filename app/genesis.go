package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// Genesis file format
type Genesis struct {
	ChainID    string         `json:"chain_id"`
	AppOptions ledger.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "read genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "unmarshal genesis file: %s", err)
	}
	return gen, nil
}
