package gconf

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/ledgertest/assert"
	"github.com/tokenvault/ledger/store"
)

func TestUpdateConfigurationHandler(t *testing.T) {
	cond := ledgertest.NewCondition()
	admin := ledgertest.NewCondition()

	cases := map[string]struct {
		// If Init is provided, initialize the database before running
		// handler code. Use nil to not provide initial state.
		Init ValidMarshaler

		Msg            ledger.Msg
		MsgConditions  []ledger.Condition
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error

		// When not nil database state will be tested to contain the
		// exact version of the configuration.
		WantConfig *myconfig
	}{
		"success": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
			},
			MsgConditions: []ledger.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
		},
		"message must be sent by the configuration owner": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 1},
			},
			MsgConditions:  []ledger.Condition{ledgertest.NewCondition()},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
		"zero values are not updating the configuration": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 0, Str: "baz"},
			},
			MsgConditions: []ledger.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 5125, Str: "baz"},
		},
		"invalid configuration is not accepted": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: -4},
			},
			MsgConditions:  []ledger.Condition{cond},
			WantCheckErr:   errors.ErrInvalidInput,
			WantDeliverErr: errors.ErrInvalidInput,
		},
		"pointer fields can set a zero value": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigPatchMsg{
				Patch: &myconfigPatch{Num: int64p(0)},
			},
			MsgConditions: []ledger.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 0, Str: "foobar"},
		},
		"nil pointer fields are not updating the configuration": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigPatchMsg{
				Patch: &myconfigPatch{Str: "baz"},
			},
			MsgConditions: []ledger.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 5125, Str: "baz"},
		},
		"patch with an unknown field is rejected": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &otherPatchMsg{
				Patch: &otherPatch{Color: "red"},
			},
			MsgConditions:  []ledger.Condition{cond},
			WantCheckErr:   errors.ErrInvalidMsg,
			WantDeliverErr: errors.ErrInvalidMsg,
		},
		"missing configuration can be created by the init admin": {
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 7},
			},
			MsgConditions: []ledger.Condition{admin},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 7},
		},
		"missing configuration cannot be created by anyone else": {
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 7},
			},
			MsgConditions:  []ledger.Condition{cond},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()

			if tc.Init != nil {
				if err := Save(db, "mypkg", tc.Init); err != nil {
					t.Fatalf("cannot save initial configuration: %s", err)
				}
			}

			var c myconfig
			auth := &ledgertest.CtxAuth{Key: "auth"}
			initAdmin := func(ledger.ReadOnlyKVStore) (ledger.Address, error) {
				return admin.Address(), nil
			}
			handler := NewUpdateConfigurationHandler("mypkg", &c, auth, initAdmin)

			ctx := ledger.WithHeight(context.Background(), 999)
			ctx = auth.SetConditions(ctx, tc.MsgConditions...)

			tx := &ledgertest.Tx{Msg: tc.Msg}

			cache := db.CacheWrap()
			if _, err := handler.Check(ctx, cache, tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()

			if _, err := handler.Deliver(ctx, db, tx); !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}

			if tc.WantConfig != nil {
				var got myconfig
				if err := Load(db, "mypkg", &got); err != nil {
					t.Fatalf("cannot load configuration from the database: %s", err)
				}
				assert.Equal(t, tc.WantConfig, &got)
			}
		})
	}
}

func TestUpdateConfigurationEventIsNotShared(t *testing.T) {
	cond := ledgertest.NewCondition()
	db := store.MemStore()
	assert.Nil(t, Save(db, "mypkg", &myconfig{Owner: cond.Address(), Num: 1}))

	auth := &ledgertest.CtxAuth{Key: "auth"}
	handler := NewUpdateConfigurationHandler("mypkg", &myconfig{}, auth, nil)
	ctx := auth.SetConditions(context.Background(), cond)

	first, err := handler.Deliver(ctx, db, &ledgertest.Tx{Msg: &myconfigMsg{Patch: &myconfig{Owner: cond.Address(), Num: 111}}})
	assert.Nil(t, err)
	second, err := handler.Deliver(ctx, db, &ledgertest.Tx{Msg: &myconfigMsg{Patch: &myconfig{Owner: cond.Address(), Num: 222}}})
	assert.Nil(t, err)

	assert.Equal(t, int64(111), first.Events[0].Payload.(*myconfig).Num)
	assert.Equal(t, int64(222), second.Events[0].Payload.(*myconfig).Num)
}

func TestUpdateConfigurationConcurrentChecks(t *testing.T) {
	cond := ledgertest.NewCondition()
	db := store.MemStore()
	assert.Nil(t, Save(db, "mypkg", &myconfig{Owner: cond.Address(), Num: 1}))

	auth := &ledgertest.CtxAuth{Key: "auth"}
	handler := NewUpdateConfigurationHandler("mypkg", &myconfig{}, auth, nil)
	ctx := auth.SetConditions(context.Background(), cond)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache := db.CacheWrap()
			defer cache.Discard()
			tx := &ledgertest.Tx{Msg: &myconfigMsg{Patch: &myconfig{Owner: cond.Address(), Num: int64(i + 10)}}}
			if _, errs[i] = handler.Check(ctx, cache, tx); errs[i] != nil {
				return
			}
			var got myconfig
			if errs[i] = Load(cache, "mypkg", &got); errs[i] == nil && got.Num != int64(i+10) {
				errs[i] = errors.Wrapf(errors.ErrInvalidState, "want %d, got %d", i+10, got.Num)
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.Nil(t, err)
	}

	var got myconfig
	assert.Nil(t, Load(db, "mypkg", &got))
	assert.Equal(t, int64(1), got.Num)
}

func TestInitConfig(t *testing.T) {
	owner := ledgertest.NewCondition().Address()
	raw := `{"conf": {"mypkg": {"Owner": "` + owner.String() + `", "Num": 12, "Str": "x"}}}`
	var opts ledger.Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	var c myconfig
	assert.Nil(t, InitConfig(db, opts, "mypkg", &c))

	var got myconfig
	assert.Nil(t, Load(db, "mypkg", &got))
	assert.Equal(t, myconfig{Owner: owner, Num: 12, Str: "x"}, got)

	assert.IsErr(t, errors.ErrNotFound, InitConfig(db, opts, "otherpkg", &c))
	assert.IsErr(t, errors.ErrNotFound, Load(db, "otherpkg", &got))
}

type myconfig struct {
	Owner ledger.Address
	Num   int64
	Str   string
}

func (c *myconfig) GetOwner() ledger.Address   { return c.Owner }
func (c *myconfig) Marshal() ([]byte, error)   { return json.Marshal(c) }
func (c *myconfig) Unmarshal(raw []byte) error { return json.Unmarshal(raw, &c) }

func (c *myconfig) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if c.Num < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "negative num")
	}
	return nil
}

type myconfigMsg struct {
	Patch *myconfig
}

var _ ledger.Msg = (*myconfigMsg)(nil)

func (msg *myconfigMsg) Path() string    { return "myconfig" }
func (msg *myconfigMsg) Validate() error { return msg.Patch.Validate() }

type myconfigPatch struct {
	Num *int64
	Str string
}

type myconfigPatchMsg struct {
	Patch *myconfigPatch
}

var _ ledger.Msg = (*myconfigPatchMsg)(nil)

func (msg *myconfigPatchMsg) Path() string    { return "myconfig" }
func (msg *myconfigPatchMsg) Validate() error { return nil }

type otherPatch struct {
	Color string
}

type otherPatchMsg struct {
	Patch *otherPatch
}

var _ ledger.Msg = (*otherPatchMsg)(nil)

func (msg *otherPatchMsg) Path() string    { return "myconfig" }
func (msg *otherPatchMsg) Validate() error { return nil }

func int64p(n int64) *int64 {
	return &n
}
