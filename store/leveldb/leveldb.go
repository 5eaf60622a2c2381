// Package leveldb implements the durable state of the ledger on top of
// goleveldb. The same implementation serves both the on disk store and the
// in memory store used by tests and the exec command.
package leveldb

import (
	"encoding/binary"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/store"
)

var (
	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}

	// versionKey holds the number of committed calls. It is outside of
	// the key space used by buckets.
	versionKey = []byte("_meta:version")
)

// Options optional parameters for the store.
type Options struct {
	// ReadCacheMB is the size of read cache for underlying database.
	ReadCacheMB int
	// WriteBufferMB is the size of write buffer for underlying database.
	WriteBufferMB int
}

// Store is a goleveldb backed ledger.CommitKVStore.
type Store struct {
	db *leveldb.DB

	mu      sync.Mutex
	version int64
}

var _ ledger.CommitKVStore = (*Store)(nil)

// Open opens or creates a store at the given path.
func Open(path string, options *Options) (*Store, error) {
	if options == nil {
		options = &Options{ReadCacheMB: 16, WriteBufferMB: 4}
	}
	ldbOpts := opt.Options{
		BlockCacheCapacity: options.ReadCacheMB * opt.MiB,
		WriteBuffer:        options.WriteBufferMB * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	}
	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	return newStore(ldb)
}

// NewMem creates a memory-backed store.
func NewMem() *Store {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err)
	}
	s, err := newStore(ldb)
	if err != nil {
		panic(err)
	}
	return s
}

func newStore(ldb *leveldb.DB) (*Store, error) {
	s := &Store{db: ldb}
	raw, err := s.Get(versionKey)
	if err != nil {
		ldb.Close()
		return nil, err
	}
	if len(raw) == 8 {
		s.version = int64(binary.BigEndian.Uint64(raw))
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns nil if the key does not exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, &readOpt)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

// Has checks if a key exists.
func (s *Store) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, &readOpt)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Set writes a single key directly to the database.
func (s *Store) Set(key, value []byte) error {
	if err := s.db.Put(key, value, &writeOpt); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Delete removes a single key directly from the database.
func (s *Store) Delete(key []byte) error {
	if err := s.db.Delete(key, &writeOpt); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Iterator returns an ascending iterator over [start, end).
func (s *Store) Iterator(start, end []byte) (ledger.Iterator, error) {
	it := s.db.NewIterator(&util.Range{Start: start, Limit: end}, &scanOpt)
	return &levelIterator{it: it, ascending: true}, nil
}

// ReverseIterator returns a descending iterator over [start, end).
func (s *Store) ReverseIterator(start, end []byte) (ledger.Iterator, error) {
	it := s.db.NewIterator(&util.Range{Start: start, Limit: end}, &scanOpt)
	return &levelIterator{it: it, ascending: false}, nil
}

// NewBatch returns an atomic leveldb batch.
func (s *Store) NewBatch() ledger.Batch {
	return &batch{db: s.db, b: new(leveldb.Batch)}
}

// CacheWrap returns a btree cache over the database. Writing the cache
// flushes all its changes in one atomic batch.
func (s *Store) CacheWrap() ledger.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Commit increments the version and persists it.
func (s *Store) Commit() (ledger.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.version + 1
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(next))
	if err := s.Set(versionKey, raw); err != nil {
		return ledger.CommitID{}, err
	}
	s.version = next
	return ledger.CommitID{Version: next}, nil
}

// LatestVersion returns the number of committed calls.
func (s *Store) LatestVersion() (ledger.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.CommitID{Version: s.version}, nil
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Set(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Write() error {
	if b.b.Len() == 0 {
		return nil
	}
	if err := b.db.Write(b.b, &writeOpt); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	b.b.Reset()
	return nil
}

type levelIterator struct {
	it        iterator.Iterator
	ascending bool
	started   bool
}

// Next returns a copy of the current pair as leveldb reuses its buffers.
func (i *levelIterator) Next() (key, value []byte, err error) {
	var ok bool
	switch {
	case !i.started && i.ascending:
		ok = i.it.First()
	case !i.started:
		ok = i.it.Last()
	case i.ascending:
		ok = i.it.Next()
	default:
		ok = i.it.Prev()
	}
	i.started = true
	if !ok {
		if err := i.it.Error(); err != nil {
			return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return nil, nil, errors.ErrIteratorDone
	}
	return append([]byte(nil), i.it.Key()...), append([]byte(nil), i.it.Value()...), nil
}

func (i *levelIterator) Release() {
	i.it.Release()
}
