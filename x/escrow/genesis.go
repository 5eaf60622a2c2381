package escrow

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/gconf"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis stores the escrow configuration declared in the "conf"
// section. The fee defaults to DefaultFeePercent when not declared.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	conf := Configuration{FeePercent: DefaultFeePercent}
	return gconf.InitConfig(db, opts, ConfigurationPackage, &conf)
}
