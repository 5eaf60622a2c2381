package api

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/x/cash"
	"github.com/tokenvault/ledger/x/staking"
)

// Stakes serves the staking positions.
type Stakes struct {
	view  Viewer
	clock Clock
}

// NewStakes returns the stakes resource.
func NewStakes(view Viewer, clock Clock) *Stakes {
	return &Stakes{view: view, clock: clock}
}

// Stake is a position together with the values derived from the current
// configuration.
type Stake struct {
	*staking.Position
	// Pending is the reward that would be paid when claiming now.
	Pending *big.Int `json:"pending"`
	// UnstakeAvailableAt is the earliest time the unstake can be
	// completed, zero without a request.
	UnstakeAvailableAt ledger.UnixTime `json:"unstake_available_at"`
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	owner, err := ledger.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	now := ledger.AsUnixTime(s.clock())

	var stake Stake
	err = s.view.View(func(db ledger.ReadOnlyKVStore) error {
		pos, err := staking.PositionOf(db, owner)
		if err != nil {
			return err
		}
		conf, err := staking.CurrentConfiguration(db)
		if err != nil {
			return err
		}
		stake = Stake{Position: pos, Pending: pos.Pending(now, conf.RewardRatePercent)}
		if pos.UnstakeRequestedAt != 0 {
			stake.UnstakeAvailableAt = pos.UnstakeRequestedAt.AddSeconds(conf.UnstakeCooldown)
		}
		return nil
	})
	if err != nil {
		return err
	}
	JSONResp(w, http.StatusOK, stake)
	return nil
}

// Mount registers the resource routes under given prefix.
func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(s.handleGetStake))
}

// Wallets serves account balances.
type Wallets struct {
	view Viewer
	ctrl cash.Controller
}

// NewWallets returns the wallets resource.
func NewWallets(view Viewer, ctrl cash.Controller) *Wallets {
	return &Wallets{view: view, ctrl: ctrl}
}

// Wallet is the balance of an account.
type Wallet struct {
	Address ledger.Address `json:"address"`
	Coins   coin.Coins     `json:"coins"`
}

func (wl *Wallets) handleGetWallet(w http.ResponseWriter, req *http.Request) error {
	addr, err := ledger.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	wallet := Wallet{Address: addr, Coins: coin.Coins{}}
	err = wl.view.View(func(db ledger.ReadOnlyKVStore) error {
		coins, err := wl.ctrl.Balance(db, addr)
		if err != nil {
			return err
		}
		if coins != nil {
			wallet.Coins = coins
		}
		return nil
	})
	if err != nil {
		return err
	}
	JSONResp(w, http.StatusOK, wallet)
	return nil
}

// Mount registers the resource routes under given prefix.
func (wl *Wallets) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(wl.handleGetWallet))
}
