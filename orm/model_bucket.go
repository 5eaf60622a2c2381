/*
Package orm provides an easy to use db wrapper for storing models in a
KVStore.

A ModelBucket keeps all entities of one kind under a common key prefix and
maintains secondary indexes for them. Keys are composed as

  <bucket>:<primary key>

and index entries as

  _i.<bucket>_<index>:<len(value)><value><primary key>

which allows to iterate over all entities indexed under a single value with
a prefix scan.
*/
package orm

import (
	"reflect"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Validate() error
}

// ModelBucket stores models of a single type.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db ledger.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. Before inserting into
	// database, model is validated using its Validate method.
	// If the key is nil, the next value of the bucket sequence is used.
	// Using a key already present in the database replaces the entity.
	// Returns the key that the model was saved under.
	Put(db ledger.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db ledger.KVStore, key []byte) error

	// ByIndex returns all entities that are indexed under given value.
	// Destination must be a pointer to a slice of models (or model
	// pointers). Keys of all found entities are returned in the order the
	// entities were loaded.
	ByIndex(db ledger.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value. An indexer returning a nil value skips
// indexing of the entity.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic("index " + name + " declared twice")
		}
		mb.indexes[name] = newIndex(mb.name, name, indexer, unique)
	}
}

// WithIDSequence configures the bucket to use the given sequence instance for
// generating ID for entities saved with a nil key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = s
	}
}

// NewModelBucket returns a ModelBucket instance storing models of the same
// type as given example.
func NewModelBucket(name string, example Model, opts ...ModelBucketOption) ModelBucket {
	tp := reflect.TypeOf(example)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp,
		indexes: make(map[string]*index),
		idSeq:   NewSequence(name, "id"),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]*index
	idSeq   Sequence
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s with key %X", mb.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrInvalidModel, "cannot unmarshal %s: %s", mb.name, err)
	}
	return nil
}

func (mb *modelBucket) Has(db ledger.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot check the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s with key %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Put(db ledger.KVStore, key []byte, m Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = next
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "cannot marshal %s: %s", mb.name, err)
	}

	var prev Model
	if len(mb.indexes) > 0 {
		old, err := db.Get(mb.dbKey(key))
		if err != nil {
			return nil, errors.Wrap(err, "cannot get from the database")
		}
		if old != nil {
			prev = reflect.New(mb.model).Interface().(Model)
			if err := prev.Unmarshal(old); err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidModel, "cannot unmarshal %s: %s", mb.name, err)
			}
		}
	}
	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, m); err != nil {
			return nil, errors.Wrapf(err, "cannot update %q index", idx.name)
		}
	}

	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (mb *modelBucket) Delete(db ledger.KVStore, key []byte) error {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s with key %X", mb.name, key)
	}
	if len(mb.indexes) > 0 {
		prev := reflect.New(mb.model).Interface().(Model)
		if err := prev.Unmarshal(raw); err != nil {
			return errors.Wrapf(errors.ErrInvalidModel, "cannot unmarshal %s: %s", mb.name, err)
		}
		for _, idx := range mb.indexes {
			if err := idx.update(db, key, prev, nil); err != nil {
				return errors.Wrapf(err, "cannot update %q index", idx.name)
			}
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) ByIndex(db ledger.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "no index %q in %s bucket", indexName, mb.name)
	}

	slice := reflect.ValueOf(dest)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrHuman, "destination must be a pointer to a slice, got %T", dest)
	}
	elem := slice.Elem().Type().Elem()
	isPtr := elem.Kind() == reflect.Ptr
	if isPtr {
		elem = elem.Elem()
	}
	if elem != mb.model {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%s bucket cannot load into %T", mb.name, dest)
	}

	keys, err := idx.keys(db, value)
	if err != nil {
		return nil, err
	}
	res := reflect.MakeSlice(slice.Elem().Type(), 0, len(keys))
	for _, key := range keys {
		m := reflect.New(mb.model)
		if err := mb.One(db, key, m.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "index %q points to a missing entity", indexName)
		}
		if isPtr {
			res = reflect.Append(res, m)
		} else {
			res = reflect.Append(res, m.Elem())
		}
	}
	slice.Elem().Set(res)
	return keys, nil
}
