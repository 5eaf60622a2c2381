package coin

import (
	"strconv"

	"github.com/tokenvault/ledger/errors"
)

// ValidateList checks an ordered list of assets, for example a payment
// attached to a message. Unlike Coins, a list keeps the order given by the
// caller and may repeat a ticker, but every entry must be positive.
func ValidateList(cs []*Coin) error {
	var err error
	for i, c := range cs {
		field := strconv.Itoa(i)
		if c == nil {
			err = errors.AppendField(err, field, errors.ErrEmpty)
			continue
		}
		if e := c.Validate(); e != nil {
			err = errors.AppendField(err, field, e)
			continue
		}
		if !c.IsPositive() {
			err = errors.AppendField(err, field, errors.Wrap(errors.ErrInvalidAmount, "must be positive"))
		}
	}
	return err
}

// EqualLists returns true if both lists hold the same coins in the same
// order.
func EqualLists(a, b []*Coin) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !a[i].Equals(*b[i]) {
			return false
		}
	}
	return true
}

// Sum combines all coins of a list into a normalized set.
func Sum(cs []*Coin) (Coins, error) {
	var (
		res Coins
		err error
	)
	for _, c := range cs {
		if res, err = res.Add(*c); err != nil {
			return nil, err
		}
	}
	return res, nil
}
