package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/x"
	"github.com/tokenvault/ledger/x/cash"
	"github.com/tokenvault/ledger/x/escrow"
	"github.com/tokenvault/ledger/x/oracle"
	"github.com/tokenvault/ledger/x/staking"
	"github.com/tokenvault/ledger/x/utils"
)

// Authenticator returns the authentication used by all extensions: the
// caller passed with every call.
func Authenticator() x.Authenticator {
	return x.CallerAuth{}
}

// CashControl returns a controller for cash functions
func CashControl() cash.Controller {
	return cash.NewController()
}

// Chain returns a chain of decorators, to handle logging, recovery,
// metrics and custody of attached payments. Metrics can be nil.
func Chain(authFn x.Authenticator, metrics *utils.Metrics) Decorators {
	return ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		// a failing call leaves no trace, custody moves included
		utils.NewSavepoint().OnCheck().OnDeliver(),
		cash.NewCustodyDecorator(authFn, CashControl()).
			WithCustody("escrow", escrow.CustodyAddress).
			WithCustody("staking", staking.CustodyAddress),
	)
}

// Routes returns a router dispatching to all extensions.
func Routes(authFn x.Authenticator) *Router {
	r := NewRouter()
	ctrl := CashControl()
	cash.RegisterRoutes(r, authFn, ctrl)
	oracle.RegisterRoutes(r, authFn)
	escrow.RegisterRoutes(r, authFn, ctrl, oracle.NewVerifier(oracle.NewStoreReader()))
	staking.RegisterRoutes(r, authFn, ctrl)
	return r
}

// Initializers returns the genesis loaders of all extensions.
func Initializers() ledger.Initializer {
	return ledger.ChainInitializers(
		cash.Initializer{},
		oracle.Initializer{},
		escrow.Initializer{},
		staking.Initializer{},
	)
}

// Ticker returns the ticker run at the beginning of every block.
func Ticker() ledger.Ticker {
	return escrow.NewCleanupTicker(CashControl())
}

// Stack wires up the router with the decorator chain. The returned router
// is the decoder of the calls handled by the stack. Metrics are registered
// with reg unless it is nil.
func Stack(reg prometheus.Registerer) (ledger.Handler, *Router, error) {
	var metrics *utils.Metrics
	if reg != nil {
		m, err := utils.NewMetrics(reg)
		if err != nil {
			return nil, nil, err
		}
		metrics = m
	}
	authFn := Authenticator()
	r := Routes(authFn)
	return Chain(authFn, metrics).WithHandler(r), r, nil
}

// Application constructs a ledger runtime with all extensions on top of
// given store.
func Application(kv ledger.CommitKVStore, reg prometheus.Registerer) (*Ledger, error) {
	h, r, err := Stack(reg)
	if err != nil {
		return nil, err
	}
	l, err := NewLedger(kv, r.Decode, h, Ticker())
	if err != nil {
		return nil, err
	}
	return l.WithInit(Initializers()), nil
}
