package store

import "github.com/tokenvault/ledger"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = ledger.ReadOnlyKVStore
	SetDeleter       = ledger.SetDeleter
	KVStore          = ledger.KVStore
	Batch            = ledger.Batch
	Iterator         = ledger.Iterator
	CacheableKVStore = ledger.CacheableKVStore
	KVCacheWrap      = ledger.KVCacheWrap
	CommitKVStore    = ledger.CommitKVStore
	CommitID         = ledger.CommitID
)

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
