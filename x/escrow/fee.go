package escrow

import (
	"math/big"

	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

var hundred = big.NewInt(100)

// PlatformFee returns the sum of floor(amount * percent / 100) over all
// offered amounts, regardless of their ticker.
func PlatformFee(offered []*coin.Coin, percent int64) *big.Int {
	total := new(big.Int)
	p := big.NewInt(percent)
	for _, c := range offered {
		if c == nil || c.Amount == nil {
			continue
		}
		fee := new(big.Int).Mul(c.Amount, p)
		fee.Quo(fee, hundred)
		total.Add(total, fee)
	}
	return total
}

// Payouts returns the amounts released for each offered asset line: the
// asset amount minus the whole platform fee. ErrUnderflow is returned if
// any line is smaller than the fee. Lines are returned in the offered
// order and may be zero.
func Payouts(offered []*coin.Coin, fee *big.Int) ([]*coin.Coin, error) {
	res := make([]*coin.Coin, 0, len(offered))
	for i, c := range offered {
		p, err := c.Subtract(coin.NewBigCoin(fee, c.Ticker))
		if err != nil {
			return nil, errors.Wrapf(err, "offered asset %d", i)
		}
		res = append(res, &p)
	}
	return res, nil
}
