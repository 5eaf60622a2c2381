package cash

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single account.
type Wallet struct {
	Coins coin.Coins `json:"coins"`
}

var _ orm.Model = (*Wallet)(nil)

// Validate requires that all coins are in normalized form.
func (w *Wallet) Validate() error {
	return w.Coins.Validate()
}

// NewWalletBucket returns a bucket storing wallets under the owner address.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}

// loadWallet returns the wallet of given address or an empty one if the
// address never held any funds.
func loadWallet(db ledger.ReadOnlyKVStore, b orm.ModelBucket, addr ledger.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, errors.Wrapf(err, "load %s wallet", addr)
	}
}
