package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/tokenvault/ledger/errors"
)

// btreeDegree keeps nodes small, a cache usually holds the handful of keys
// touched by a single call.
const btreeDegree = 2

// MemStore returns a store that lives only in memory. Nothing is persisted:
// the data lives as long as the returned cache is neither written nor
// discarded.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// BTreeCacheWrap buffers the writes of a call over a parent store. Reads
// see the buffered writes first. Write flushes them to the parent through
// the batch, Discard drops them.
//
// Every call executed by the ledger runs in such a cache, so that a failing
// call leaves the state untouched.
type BTreeCacheWrap struct {
	tree  *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap caches the writes going to batch over kv. All writes
// must go through the batch, kv is only read.
//
// Nested caches share the free list of their parent, free is nil for the
// outermost one.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		tree:  btree.NewWithFreeList(btreeDegree, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap starts a nested cache, used for savepoints inside a call.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch writing into this cache.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes the buffered writes to the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all buffered writes.
func (b BTreeCacheWrap) Discard() {
	for b.tree.DeleteMin() != nil {
	}
	if nb, ok := b.batch.(*NonAtomicBatch); ok {
		nb.Reset()
	}
}

// Set buffers a write of value under key.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrHuman, "nil key")
	}
	b.tree.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

// Delete buffers a removal of key. The key is hidden from reads of this
// cache right away.
func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrHuman, "nil key")
	}
	b.tree.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

// lookup returns the buffered entry of key, if any.
func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	item := b.tree.Get(entry{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(entry), true
}

// Get returns the buffered value, or the value of the parent if key was
// not written.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := b.lookup(key); ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return b.back.Get(key)
}

// Has reports whether key is present, taking buffered writes into account.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if e, ok := b.lookup(key); ok {
		return !e.deleted, nil
	}
	return b.back.Has(key)
}

// Iterator walks [start, end) in ascending key order, buffered writes
// merged over the parent.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parentIter, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(ascendEntries(b.tree, start, end), parentIter, true), nil
}

// ReverseIterator walks [start, end) in descending key order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parentIter, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(descendEntries(b.tree, start, end), parentIter, false), nil
}

// entry is a buffered write. A deleted entry is a tombstone hiding the key
// of the parent store. Lookups use an entry with only the key set.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = entry{}

// Less orders entries by key.
func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
