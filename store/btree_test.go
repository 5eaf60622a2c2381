package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger/errors"
)

func collect(t *testing.T, it Iterator) []Model {
	t.Helper()
	defer it.Release()
	var res []Model
	for {
		k, v, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		require.NoError(t, err)
		res = append(res, Pair(k, v))
	}
}

func TestCacheWrapGetSetDelete(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))
	require.NoError(t, base.Set([]byte("b"), []byte("2")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("c"), []byte("3")))
	require.NoError(t, cache.Delete([]byte("a")))

	v, err := cache.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)
	has, err := cache.Has([]byte("b"))
	require.NoError(t, err)
	assert.True(t, has)

	// Parent is not modified until write.
	has, err = base.Has([]byte("c"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, cache.Write())

	v, err = base.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)
	has, err = base.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCacheWrapDiscard(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("a"), []byte("changed")))
	require.NoError(t, cache.Set([]byte("z"), []byte("new")))
	cache.Discard()

	v, err := base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	has, err := base.Has([]byte("z"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMergedIterators(t *testing.T) {
	base := MemStore()
	for _, k := range []string{"a", "c", "e", "g"} {
		require.NoError(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("cache-b")))
	require.NoError(t, cache.Set([]byte("c"), []byte("cache-c")))
	require.NoError(t, cache.Delete([]byte("e")))
	require.NoError(t, cache.Set([]byte("h"), []byte("cache-h")))

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []Model
	}{
		"full ascending": {
			want: []Model{
				Pair([]byte("a"), []byte("base-a")),
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("c"), []byte("cache-c")),
				Pair([]byte("g"), []byte("base-g")),
				Pair([]byte("h"), []byte("cache-h")),
			},
		},
		"bounded ascending": {
			start: []byte("b"),
			end:   []byte("g"),
			want: []Model{
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("c"), []byte("cache-c")),
			},
		},
		"full descending": {
			reverse: true,
			want: []Model{
				Pair([]byte("h"), []byte("cache-h")),
				Pair([]byte("g"), []byte("base-g")),
				Pair([]byte("c"), []byte("cache-c")),
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("a"), []byte("base-a")),
			},
		},
		"bounded descending": {
			start:   []byte("a"),
			end:     []byte("c"),
			reverse: true,
			want: []Model{
				Pair([]byte("b"), []byte("cache-b")),
				Pair([]byte("a"), []byte("base-a")),
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, collect(t, it))
		})
	}
}

func TestNestedCacheWrap(t *testing.T) {
	base := MemStore()
	outer := base.CacheWrap()
	inner := outer.CacheWrap()

	require.NoError(t, inner.Set([]byte("k"), []byte("v")))
	require.NoError(t, inner.Write())

	v, err := outer.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	outer.Discard()
	has, err := base.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestNilKeyRejected(t *testing.T) {
	db := MemStore()
	err := db.Set(nil, []byte("x"))
	assert.True(t, errors.ErrHuman.Is(err))
}

func TestNestedCacheRollback(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("balance"), []byte("100")))
	call := base.CacheWrap()

	// A failed step inside the call leaves the call's writes as they were.
	step := call.CacheWrap()
	require.NoError(t, step.Delete([]byte("balance")))
	require.NoError(t, step.Set([]byte("offer"), []byte("1")))
	has, err := step.Has([]byte("balance"))
	require.NoError(t, err)
	assert.False(t, has)
	step.Discard()

	v, err := call.Get([]byte("balance"))
	require.NoError(t, err)
	assert.Equal(t, []byte("100"), v)
	has, err = call.Has([]byte("offer"))
	require.NoError(t, err)
	assert.False(t, has)

	// A key deleted and written again in the same cache holds the last value.
	step = call.CacheWrap()
	require.NoError(t, step.Delete([]byte("balance")))
	require.NoError(t, step.Set([]byte("balance"), []byte("40")))
	require.NoError(t, step.Write())
	require.NoError(t, call.Write())

	v, err = base.Get([]byte("balance"))
	require.NoError(t, err)
	assert.Equal(t, []byte("40"), v)
}
