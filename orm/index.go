package orm

import (
	"bytes"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

const indexPrefix = "_i."

// Indexer calculates the secondary index key for a given model. Returning a
// nil value means the model is not indexed.
type Indexer func(Model) ([]byte, error)

// index stores one key per indexed entity. An index entry is an empty value
// stored under a key made of the index value and the primary key of the
// entity, so that all entities sharing a value are adjacent.
type index struct {
	name    string
	prefix  []byte
	indexer Indexer
	unique  bool
}

func newIndex(bucket, name string, indexer Indexer, unique bool) *index {
	return &index{
		name:    name,
		prefix:  []byte(indexPrefix + bucket + "_" + name + ":"),
		indexer: indexer,
		unique:  unique,
	}
}

// valuePrefix returns the key prefix shared by all entries indexed under
// given value.
func (i *index) valuePrefix(value []byte) ([]byte, error) {
	if len(value) > 255 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "index %q value too long", i.name)
	}
	p := make([]byte, 0, len(i.prefix)+1+len(value))
	p = append(p, i.prefix...)
	p = append(p, byte(len(value)))
	return append(p, value...), nil
}

func (i *index) update(db ledger.KVStore, key []byte, prev, next Model) error {
	var prevVal, nextVal []byte
	var err error
	if prev != nil {
		if prevVal, err = i.indexer(prev); err != nil {
			return err
		}
	}
	if next != nil {
		if nextVal, err = i.indexer(next); err != nil {
			return err
		}
	}
	if prev != nil && next != nil && bytes.Equal(prevVal, nextVal) {
		return nil
	}

	if prevVal != nil {
		p, err := i.valuePrefix(prevVal)
		if err != nil {
			return err
		}
		if err := db.Delete(append(p, key...)); err != nil {
			return err
		}
	}
	if nextVal != nil {
		p, err := i.valuePrefix(nextVal)
		if err != nil {
			return err
		}
		if i.unique {
			keys, err := i.keys(db, nextVal)
			if err != nil {
				return err
			}
			if len(keys) > 0 {
				return errors.Wrapf(errors.ErrDuplicate, "index %q value %X", i.name, nextVal)
			}
		}
		if err := db.Set(append(p, key...), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// keys returns primary keys of all entities indexed under given value, in
// ascending order.
func (i *index) keys(db ledger.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	p, err := i.valuePrefix(value)
	if err != nil {
		return nil, err
	}
	it, err := db.Iterator(p, prefixEnd(p))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return keys, nil
			}
			return nil, err
		}
		keys = append(keys, append([]byte(nil), k[len(p):]...))
	}
}

// prefixEnd returns the smallest key that is greater than all keys with
// given prefix, or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
