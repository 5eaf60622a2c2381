package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/x/escrow"
	"github.com/tokenvault/ledger/x/staking"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	good := &ledgertest.Handler{}
	bad := &ledgertest.Handler{DeliverErr: errors.ErrInvalidState}
	r.Handle(&ledgertest.Msg{RoutePath: "test/good"}, good)
	r.Handle(&ledgertest.Msg{RoutePath: "test/bad"}, bad)

	// make sure invalid registrations panic
	assert.Panics(t, func() { r.Handle(&ledgertest.Msg{RoutePath: "test/good"}, good) })
	assert.Panics(t, func() { r.Handle(&ledgertest.Msg{RoutePath: "l:7"}, good) })
	assert.Panics(t, func() { r.Handle(&ledgertest.Msg{RoutePath: ""}, good) })

	assert.Equal(t, []string{"test/bad", "test/good"}, r.Paths())

	ctx := context.Background()
	goodTx := &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "test/good"}}
	_, err := r.Check(ctx, nil, goodTx)
	require.NoError(t, err)
	_, err = r.Deliver(ctx, nil, goodTx)
	require.NoError(t, err)
	assert.Equal(t, 2, good.CallCount())

	_, err = r.Deliver(ctx, nil, &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "test/bad"}})
	assert.True(t, errors.ErrInvalidState.Is(err))
	assert.Equal(t, 1, bad.DeliverCallCount())

	missing := &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: "test/missing"}}
	_, err = r.Check(ctx, nil, missing)
	assert.True(t, errors.ErrNotFound.Is(err))
	_, err = r.Deliver(ctx, nil, missing)
	assert.True(t, errors.ErrNotFound.Is(err))

	_, err = r.Deliver(ctx, nil, &ledgertest.Tx{})
	assert.True(t, errors.ErrEmpty.Is(err))
	_, err = r.Check(ctx, nil, &ledgertest.Tx{Err: errors.ErrInvalidMsg})
	assert.True(t, errors.ErrInvalidMsg.Is(err))

	assert.Equal(t, 2, good.CallCount())
}

func TestDecode(t *testing.T) {
	r := Routes(Authenticator())
	bob := ledgertest.NewCondition().Address()

	create := &escrow.CreateOfferMsg{
		Recipient: bob,
		Expected:  []*coin.Coin{coin.NewCoinp(5, "USDC")},
		ExpiresAt: 1234,
		Conditions: []escrow.OracleCondition{
			{Oracle: bob, DataKey: []byte("btc/usd"), ExpectedValue: []byte("up")},
		},
		Payment: []*coin.Coin{coin.NewCoinp(7, "EGLD"), coin.NewCoinp(3, "MEX")},
	}
	raw, err := EncodeTx(create)
	require.NoError(t, err)

	tx, err := r.Decode(raw)
	require.NoError(t, err)
	var got escrow.CreateOfferMsg
	require.NoError(t, ledger.LoadMsg(tx, &got))
	assert.Equal(t, *create, got)

	tx, err = r.Decode([]byte(`{"path": "staking/claim_rewards"}`))
	require.NoError(t, err)
	assert.Equal(t, "staking/claim_rewards", ledger.GetPath(tx))
	var claim staking.ClaimRewardsMsg
	require.NoError(t, ledger.LoadMsg(tx, &claim))

	cases := map[string]struct {
		raw     string
		wantErr *errors.Error
	}{
		"not json":       {raw: `escrow`, wantErr: errors.ErrInvalidInput},
		"no path":        {raw: `{"msg": {}}`, wantErr: errors.ErrEmpty},
		"unknown path":   {raw: `{"path": "escrow/burn"}`, wantErr: errors.ErrNotFound},
		"malformed body": {raw: `{"path": "escrow/cancel_offer", "msg": {"offer_id": "one"}}`, wantErr: errors.ErrInvalidMsg},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Decode([]byte(tc.raw))
			assert.True(t, tc.wantErr.Is(err), "want %v, got %+v", tc.wantErr, err)
		})
	}
}

func TestEncodeTxWithoutMessage(t *testing.T) {
	_, err := EncodeTx(nil)
	assert.True(t, errors.ErrEmpty.Is(err))
}
