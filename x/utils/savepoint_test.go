package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/store"
)

func TestSavepoint(t *testing.T) {
	// always written before calling the decorator
	ok, ov := []byte("demo"), []byte("data")
	// written by the handler
	nk, nv := []byte{1, 2, 3}, []byte{4, 5, 6}
	derr := errors.ErrInvalidState.New("something went wrong")

	cases := map[string]struct {
		save    ledger.Decorator
		handler *ledgertest.Handler
		check   bool // whether to call Check or Deliver
		wantErr *errors.Error
		written [][]byte
		missing [][]byte
	}{
		"savepoint deactivated, both written": {
			save:    NewSavepoint(),
			handler: &ledgertest.Handler{Write: &[2][]byte{nk, nv}, CheckErr: derr},
			check:   true,
			wantErr: errors.ErrInvalidState,
			written: [][]byte{ok, nk},
		},
		"savepoint on check rolls back failed check": {
			save:    NewSavepoint().OnCheck(),
			handler: &ledgertest.Handler{Write: &[2][]byte{nk, nv}, CheckErr: derr},
			check:   true,
			wantErr: errors.ErrInvalidState,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"savepoint on deliver rolls back failed deliver": {
			save:    NewSavepoint().OnDeliver(),
			handler: &ledgertest.Handler{Write: &[2][]byte{nk, nv}, DeliverErr: derr},
			wantErr: errors.ErrInvalidState,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"savepoint on check does not affect deliver": {
			save:    NewSavepoint().OnCheck(),
			handler: &ledgertest.Handler{Write: &[2][]byte{nk, nv}, DeliverErr: derr},
			wantErr: errors.ErrInvalidState,
			written: [][]byte{ok, nk},
		},
		"successful call is written": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			handler: &ledgertest.Handler{Write: &[2][]byte{nk, nv}},
			written: [][]byte{ok, nk},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			kv := store.MemStore()
			require.NoError(t, kv.Set(ok, ov))

			var err error
			if tc.check {
				_, err = tc.save.Check(ctx, kv, &ledgertest.Tx{}, tc.handler)
			} else {
				_, err = tc.save.Deliver(ctx, kv, &ledgertest.Tx{}, tc.handler)
			}
			assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)

			for _, k := range tc.written {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.True(t, has, "missing %X", k)
			}
			for _, k := range tc.missing {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.False(t, has, "unexpected %X", k)
			}
		})
	}
}
