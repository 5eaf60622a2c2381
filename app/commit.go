package app

import (
	"encoding/binary"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// CommitStore handles loading from a CommitKVStore and running calls on a
// cache wrap, so that a call is either committed as a whole or leaves no
// trace.
type CommitStore struct {
	committed ledger.CommitKVStore
}

// NewCommitStore wraps given store.
func NewCommitStore(store ledger.CommitKVStore) *CommitStore {
	return &CommitStore{committed: store}
}

// CommitInfo returns the current version.
func (cs *CommitStore) CommitInfo() (ledger.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Apply runs fn on a fresh cache wrap. If fn succeeds the cache is flushed
// to the underlying store and committed to disk, otherwise all writes are
// discarded.
func (cs *CommitStore) Apply(fn func(db ledger.CacheableKVStore) error) (ledger.CommitID, error) {
	cache := cs.committed.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return ledger.CommitID{}, err
	}
	if err := cache.Write(); err != nil {
		return ledger.CommitID{}, errors.Wrap(err, "flush cache")
	}
	return cs.committed.Commit()
}

// Dry runs fn on a cache wrap that is always discarded.
func (cs *CommitStore) Dry(fn func(db ledger.CacheableKVStore) error) error {
	cache := cs.committed.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

// ReadStore returns the committed state. It must not be written to.
func (cs *CommitStore) ReadStore() ledger.ReadOnlyKVStore {
	return cs.committed
}

// Close closes the underlying store.
func (cs *CommitStore) Close() error {
	return cs.committed.Close()
}

//------- runtime metadata ---------

// _ld: is a prefix for ledger internal data
const (
	chainIDKey  = "_ld:chainID"
	lastTimeKey = "_ld:lastTime"
)

// loadChainID returns the chain id stored if any
func loadChainID(kv ledger.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chainID")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv ledger.KVStore, chainID string) error {
	if !ledger.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chainID")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	if err := kv.Set(k, []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chainID")
	}
	return nil
}

// loadLastTime returns the block time of the latest committed call, or
// zero if nothing was executed yet.
func loadLastTime(kv ledger.ReadOnlyKVStore) (ledger.UnixTime, error) {
	v, err := kv.Get([]byte(lastTimeKey))
	if err != nil {
		return 0, errors.Wrap(err, "load last time")
	}
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, errors.Wrapf(errors.ErrInvalidState, "last time of %d bytes", len(v))
	}
	return ledger.UnixTime(binary.BigEndian.Uint64(v)), nil
}

func saveLastTime(kv ledger.KVStore, t ledger.UnixTime) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t))
	return kv.Set([]byte(lastTimeKey), b)
}
