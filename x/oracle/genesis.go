package oracle

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

const optKey = "oracle"

// GenesisAttestation is an attestation loaded from the genesis file.
type GenesisAttestation struct {
	Oracle  ledger.Address `json:"oracle"`
	DataKey string         `json:"data_key"`
	Value   string         `json:"value"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis stores all attestations declared in the genesis file.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	var entries []GenesisAttestation
	if err := opts.ReadOptions(optKey, &entries); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	bucket := NewAttestationBucket()
	for i, e := range entries {
		a := &Attestation{
			Oracle:  e.Oracle,
			DataKey: []byte(e.DataKey),
			Value:   []byte(e.Value),
		}
		if _, err := bucket.Put(db, attestationKey(a.Oracle, a.DataKey), a); err != nil {
			return errors.Wrapf(err, "attestation %d", i)
		}
	}
	return nil
}
