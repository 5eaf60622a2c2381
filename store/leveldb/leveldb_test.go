package leveldb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

func TestCacheWrapWriteIsDurable(t *testing.T) {
	dir, err := ioutil.TempDir("", "ledger-leveldb")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := Open(dir, nil)
	require.NoError(t, err)

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("offer:1"), []byte("one")))
	require.NoError(t, cache.Set([]byte("offer:2"), []byte("two")))
	require.NoError(t, cache.Write())
	id, err := db.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)

	discarded := db.CacheWrap()
	require.NoError(t, discarded.Set([]byte("offer:3"), []byte("three")))
	discarded.Discard()
	require.NoError(t, db.Close())

	db, err = Open(dir, nil)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("offer:2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
	has, err := db.Has([]byte("offer:3"))
	require.NoError(t, err)
	assert.False(t, has)

	latest, err := db.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.Version)
}

func TestIterators(t *testing.T) {
	db := NewMem()
	defer db.Close()

	for _, k := range []string{"a:1", "a:2", "a:3", "b:1"} {
		require.NoError(t, db.Set([]byte(k), []byte(k)))
	}

	readAll := func(reverse bool) []string {
		var (
			it  ledger.Iterator
			err error
		)
		if reverse {
			it, err = db.ReverseIterator([]byte("a:"), []byte("a;"))
		} else {
			it, err = db.Iterator([]byte("a:"), []byte("a;"))
		}
		require.NoError(t, err)
		defer it.Release()

		var keys []string
		for {
			k, _, err := it.Next()
			if errors.ErrIteratorDone.Is(err) {
				return keys
			}
			require.NoError(t, err)
			keys = append(keys, string(k))
		}
	}

	assert.Equal(t, []string{"a:1", "a:2", "a:3"}, readAll(false))
	assert.Equal(t, []string{"a:3", "a:2", "a:1"}, readAll(true))
}

func TestMissingKey(t *testing.T) {
	db := NewMem()
	defer db.Close()

	v, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
