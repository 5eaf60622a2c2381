package cash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/store"
)

type payMsg struct {
	path    string
	payment []*coin.Coin
}

func (m *payMsg) Path() string             { return m.path }
func (m *payMsg) Validate() error          { return nil }
func (m *payMsg) GetPayment() []*coin.Coin { return m.payment }

func TestCustodyDecorator(t *testing.T) {
	alice := ledgertest.NewCondition()
	vault := ledgertest.NewCondition().Address()

	cases := map[string]struct {
		signers     []ledger.Condition
		msg         ledger.Msg
		wantErr     *errors.Error
		wantVault   string
		wantHandled bool
	}{
		"payment is moved into custody": {
			signers:     []ledger.Condition{alice},
			msg:         &payMsg{path: "escrow/create_offer", payment: []*coin.Coin{coin.NewCoinp(25, "EGLD")}},
			wantVault:   "25 EGLD",
			wantHandled: true,
		},
		"message without payment is passed through": {
			signers:     []ledger.Condition{alice},
			msg:         &payMsg{path: "escrow/cancel_offer"},
			wantVault:   "0 EGLD",
			wantHandled: true,
		},
		"not a payer": {
			msg:         &ledgertest.Msg{RoutePath: "escrow/cleanup"},
			wantVault:   "0 EGLD",
			wantHandled: true,
		},
		"insufficient funds": {
			signers:   []ledger.Condition{alice},
			msg:       &payMsg{path: "escrow/create_offer", payment: []*coin.Coin{coin.NewCoinp(101, "EGLD")}},
			wantErr:   errors.ErrInsufficientAmount,
			wantVault: "0 EGLD",
		},
		"unknown extension": {
			signers:   []ledger.Condition{alice},
			msg:       &payMsg{path: "lottery/play", payment: []*coin.Coin{coin.NewCoinp(1, "EGLD")}},
			wantErr:   errors.ErrHuman,
			wantVault: "0 EGLD",
		},
		"payment requires a caller": {
			msg:       &payMsg{path: "escrow/create_offer", payment: []*coin.Coin{coin.NewCoinp(1, "EGLD")}},
			wantErr:   errors.ErrUnauthorized,
			wantVault: "0 EGLD",
		},
		"invalid payment": {
			signers:   []ledger.Condition{alice},
			msg:       &payMsg{path: "escrow/create_offer", payment: []*coin.Coin{coin.NewCoinp(-1, "EGLD")}},
			wantErr:   errors.ErrInvalidAmount,
			wantVault: "0 EGLD",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			require.NoError(t, ctrl.IssueCoins(db, alice.Address(), coin.NewCoin(100, "EGLD")))

			auth := &ledgertest.CtxAuth{Key: "auth"}
			ctx := auth.SetConditions(context.Background(), tc.signers...)
			d := NewCustodyDecorator(auth, ctrl).WithCustody("escrow", vault)
			h := &ledgertest.Handler{}

			_, err := d.Deliver(ctx, db, &ledgertest.Tx{Msg: tc.msg}, h)
			assert.True(t, tc.wantErr.Is(err), "got %+v", err)
			assert.Equal(t, tc.wantHandled, h.DeliverCallCount() == 1)

			bal, err := ctrl.Balance(db, vault)
			require.NoError(t, err)
			assert.Equal(t, tc.wantVault, bal.Balance("EGLD").String())
		})
	}
}
