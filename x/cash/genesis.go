package cash

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file.
type GenesisAccount struct {
	Address ledger.Address `json:"address"`
	Coins   []*coin.Coin   `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts ledger.Options, kv ledger.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	ctrl := NewController()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := coin.ValidateList(acct.Coins); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, c := range acct.Coins {
			if err := ctrl.IssueCoins(kv, acct.Address, *c); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
	}
	return nil
}
