package x_test

import (
	"context"
	"testing"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/ledgertest/assert"
	"github.com/tokenvault/ledger/x"
)

func TestAuth(t *testing.T) {
	a := ledgertest.NewCondition()
	b := ledgertest.NewCondition()
	c := ledgertest.NewCondition()

	ctxAuth := &ledgertest.CtxAuth{Key: "auth"}
	ctx := ctxAuth.SetConditions(context.Background(), a, b)
	static := &ledgertest.Auth{Signer: c}
	auth := x.ChainAuth(ctxAuth, static)

	assert.Equal(t, []ledger.Condition{a, b, c}, auth.GetConditions(ctx))
	assert.Equal(t, a, x.MainSigner(ctx, auth))
	assert.Equal(t, true, auth.HasAddress(ctx, c.Address()))
	assert.Equal(t, true, x.HasAllAddresses(ctx, auth, []ledger.Address{a.Address(), c.Address()}))
	assert.Equal(t, false, x.HasAllAddresses(ctx, auth, []ledger.Address{ledgertest.NewCondition().Address()}))
	assert.Equal(t, 3, len(x.GetAddresses(ctx, auth)))

	empty := x.ChainAuth()
	assert.Nil(t, x.MainSigner(ctx, empty))
}

func TestCallerAuth(t *testing.T) {
	alice := ledgertest.NewCondition()
	auth := x.CallerAuth{}

	assert.Equal(t, 0, len(auth.GetConditions(context.Background())))

	ctx := x.WithCaller(context.Background(), alice)
	assert.Equal(t, alice, x.MainSigner(ctx, auth))
	assert.Equal(t, true, auth.HasAddress(ctx, alice.Address()))
	assert.Equal(t, false, auth.HasAddress(ctx, ledgertest.NewCondition().Address()))
}
