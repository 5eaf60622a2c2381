package staking

import (
	"github.com/tokenvault/ledger"
)

// PositionOf returns the position of given owner or ErrNotFound.
func PositionOf(db ledger.ReadOnlyKVStore, owner ledger.Address) (*Position, error) {
	return loadPosition(db, NewPositionBucket(), owner)
}

// CurrentConfiguration returns the stored staking configuration.
func CurrentConfiguration(db ledger.ReadOnlyKVStore) (*Configuration, error) {
	return loadConf(db)
}
