package cash

import (
	"context"
	"strings"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/x"
)

// CustodyDecorator moves the payment attached to a message into the custody
// account of the extension that handles the message. Custody accounts are
// registered per extension, using the first segment of the message path.
//
// The payment is always taken from the main signer of the call.
type CustodyDecorator struct {
	auth     x.Authenticator
	mover    CoinMover
	accounts map[string]ledger.Address
}

var _ ledger.Decorator = CustodyDecorator{}

// NewCustodyDecorator returns a decorator without any custody account
// registered.
func NewCustodyDecorator(auth x.Authenticator, mover CoinMover) CustodyDecorator {
	return CustodyDecorator{
		auth:     auth,
		mover:    mover,
		accounts: make(map[string]ledger.Address),
	}
}

// WithCustody registers the custody account of an extension.
func (d CustodyDecorator) WithCustody(extension string, account ledger.Address) CustodyDecorator {
	accounts := make(map[string]ledger.Address, len(d.accounts)+1)
	for k, v := range d.accounts {
		accounts[k] = v
	}
	accounts[extension] = account
	d.accounts = accounts
	return d
}

// Check moves the payment before calling down the stack.
func (d CustodyDecorator) Check(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	if err := d.collect(ctx, store, tx); err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver moves the payment before calling down the stack.
func (d CustodyDecorator) Deliver(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	if err := d.collect(ctx, store, tx); err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d CustodyDecorator) collect(ctx context.Context, store ledger.KVStore, tx ledger.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	payer, ok := msg.(Payer)
	if !ok {
		return nil
	}
	payment := payer.GetPayment()
	if len(payment) == 0 {
		return nil
	}
	if err := coin.ValidateList(payment); err != nil {
		return errors.Wrap(err, "payment")
	}

	extension := strings.SplitN(msg.Path(), "/", 2)[0]
	custody, ok := d.accounts[extension]
	if !ok {
		return errors.Wrapf(errors.ErrHuman, "no custody account for %q", extension)
	}
	signer := x.MainSigner(ctx, d.auth)
	if signer == nil {
		return errors.Wrap(errors.ErrUnauthorized, "payment requires a caller")
	}
	if err := MoveAll(store, d.mover, signer.Address(), custody, payment); err != nil {
		return errors.Wrap(err, "collect payment")
	}
	return nil
}
