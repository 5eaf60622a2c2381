package cash

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

// Controller is the functionality needed by cash.Handler and cash.Decorator.
// BaseController should work plenty fine, but you can add other logic if so
// desired
type Controller interface {
	CoinMover
	// Balance returns the coins held by given address. An address that
	// never received funds has an empty balance.
	Balance(ledger.ReadOnlyKVStore, ledger.Address) (coin.Coins, error)
	// IssueCoins credits given address with newly created coins.
	IssueCoins(ledger.KVStore, ledger.Address, coin.Coin) error
}

// CoinMover is an interface for moving coins between accounts.
type CoinMover interface {
	// MoveCoins removes funds from the source account and adds them to
	// the destination account. This operation is atomic.
	MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error
}

// BaseController is a simple implementation of controller wallet must
// return something that supports AddableCoin
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default wallet bucket.
func NewController() BaseController {
	return BaseController{bucket: NewWalletBucket()}
}

// Balance returns the amount of all coins stored under given account address.
func (c BaseController) Balance(db ledger.ReadOnlyKVStore, addr ledger.Address) (coin.Coins, error) {
	w, err := loadWallet(db, c.bucket, addr)
	if err != nil {
		return nil, err
	}
	return w.Coins, nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't have sufficient coins, it fails.
func (c BaseController) MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrInvalidAmount, "non-positive amount")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}

	sender, err := loadWallet(db, c.bucket, src)
	if err != nil {
		return err
	}
	if !sender.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %s, need %s",
			src, sender.Coins.Balance(amount.Ticker), amount)
	}
	if sender.Coins, err = sender.Coins.Subtract(amount); err != nil {
		return err
	}
	if err := c.save(db, src, sender); err != nil {
		return err
	}

	// The recipient is loaded after the sender was saved so that moving
	// funds to the same address is a no-op.
	recipient, err := loadWallet(db, c.bucket, dest)
	if err != nil {
		return err
	}
	if recipient.Coins, err = recipient.Coins.Add(amount); err != nil {
		return err
	}
	return c.save(db, dest, recipient)
}

// IssueCoins attempts to add the given amount of coins to the destination
// address.
func (c BaseController) IssueCoins(db ledger.KVStore, dest ledger.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	w, err := loadWallet(db, c.bucket, dest)
	if err != nil {
		return err
	}
	if w.Coins, err = w.Coins.Add(amount); err != nil {
		return err
	}
	return c.save(db, dest, w)
}

func (c BaseController) save(db ledger.KVStore, addr ledger.Address, w *Wallet) error {
	if w.Coins.IsEmpty() {
		if err := c.bucket.Delete(db, addr); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	_, err := c.bucket.Put(db, addr, w)
	return err
}

// MoveAll moves every coin of the list from src to dest. A zero coin is
// skipped.
func MoveAll(db ledger.KVStore, mover CoinMover, src, dest ledger.Address, amounts []*coin.Coin) error {
	for i, c := range amounts {
		if coin.IsEmpty(c) {
			continue
		}
		if err := mover.MoveCoins(db, src, dest, *c); err != nil {
			return errors.Wrapf(err, "coin %d", i)
		}
	}
	return nil
}
