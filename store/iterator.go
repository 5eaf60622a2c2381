package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/tokenvault/ledger/errors"
)

// ascendEntries returns the buffered entries in [start, end) in ascending
// key order. A nil start or end means an open range.
func ascendEntries(tree *btree.BTree, start, end []byte) []entry {
	var entries []entry
	collect := func(item btree.Item) bool {
		entries = append(entries, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		tree.Ascend(collect)
	case start == nil:
		tree.AscendLessThan(entry{key: end}, collect)
	case end == nil:
		tree.AscendGreaterOrEqual(entry{key: start}, collect)
	default:
		tree.AscendRange(entry{key: start}, entry{key: end}, collect)
	}
	return entries
}

// descendEntries returns the buffered entries in [start, end) in
// descending key order.
func descendEntries(tree *btree.BTree, start, end []byte) []entry {
	entries := ascendEntries(tree, start, end)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// mergeIterator combines a snapshot of cached items with the iterator of
// the parent store, taking into consideration overwrites and deletes.
// Cached items always win over parent items with the same key.
type mergeIterator struct {
	cache     []entry
	idx       int
	parent    Iterator
	ascending bool

	// lookahead of the parent iterator
	pkey, pvalue []byte
	pdone        bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(cache []entry, parent Iterator, ascending bool) *mergeIterator {
	return &mergeIterator{
		cache:     cache,
		parent:    parent,
		ascending: ascending,
	}
}

// first returns true if key a comes before key b in the iteration order.
func (m *mergeIterator) first(a, b []byte) bool {
	if m.ascending {
		return bytes.Compare(a, b) < 0
	}
	return bytes.Compare(a, b) > 0
}

func (m *mergeIterator) peekParent() error {
	if m.pdone || m.pkey != nil {
		return nil
	}
	key, value, err := m.parent.Next()
	if err != nil {
		if errors.ErrIteratorDone.Is(err) {
			m.pdone = true
			return nil
		}
		return err
	}
	m.pkey, m.pvalue = key, value
	return nil
}

// Next returns the next key/value pair, or ErrIteratorDone.
func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		if err := m.peekParent(); err != nil {
			return nil, nil, err
		}

		hasCache := m.idx < len(m.cache)
		hasParent := m.pkey != nil
		if !hasCache && !hasParent {
			return nil, nil, errors.ErrIteratorDone
		}

		if hasParent {
			if !hasCache || m.first(m.pkey, m.cache[m.idx].key) {
				key, value = m.pkey, m.pvalue
				m.pkey, m.pvalue = nil, nil
				return key, value, nil
			}
			if bytes.Equal(m.pkey, m.cache[m.idx].key) {
				// Overwritten or deleted in the cache.
				m.pkey, m.pvalue = nil, nil
			}
		}

		e := m.cache[m.idx]
		m.idx++
		if e.deleted {
			continue
		}
		return e.key, e.value, nil
	}
}

// Release releases the parent iterator and drops the snapshot.
func (m *mergeIterator) Release() {
	m.cache = nil
	m.parent.Release()
}
