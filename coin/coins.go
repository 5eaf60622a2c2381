package coin

import (
	"strings"

	"github.com/tokenvault/ledger/errors"
)

// Coins represents a set of coins, used for balances. Most operations on
// the coin set require normalized form: sorted by ticker, no duplicates and
// no zero values.
type Coins []*Coin

// CombineCoins creates a Coins containing all given coins.
// It will sort them and combine duplicates to produce
// a normalized form regardless of input.
func CombineCoins(cs ...Coin) (Coins, error) {
	var err error
	coins := make(Coins, 0, len(cs))
	for _, c := range cs {
		coins, err = coins.Add(c)
		if err != nil {
			return nil, err
		}
	}
	if err := coins.Validate(); err != nil {
		return nil, err
	}
	return coins, nil
}

// Clone returns a copy that can be safely modified
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make([]*Coin, len(cs))
	for i, c := range cs {
		cp := c.Clone()
		res[i] = &cp
	}
	return Coins(res)
}

// Add returns a new set, with the holdings increased by c
func (cs Coins) Add(c Coin) (Coins, error) {
	// We ignore zero values
	if c.IsZero() {
		return cs.Clone(), nil
	}

	res := cs.Clone()
	has, i := res.findCoin(c.ID())
	if has != nil {
		sum, err := has.Add(c)
		if err != nil {
			return nil, err
		}
		res[i] = &sum
		return res, nil
	}
	cp := c.Clone()
	res = append(res, nil)
	copy(res[i+1:], res[i:])
	res[i] = &cp
	return res, nil
}

// Subtract returns a new set, with the holdings decreased by c.
// ErrInsufficientAmount is returned if the set does not contain c.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs.Clone(), nil
	}
	res := cs.Clone()
	has, i := res.findCoin(c.ID())
	if has == nil {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "no %s", c.Ticker)
	}
	diff, err := has.Subtract(c)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "%s available, %s requested", has, c)
	}
	if diff.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &diff
	return res, nil
}

// Combine will create a new Coins adding all the coins
// of s and o together.
func (cs Coins) Combine(o Coins) (Coins, error) {
	var err error
	res := cs.Clone()
	for _, c := range o {
		res, err = res.Add(*c)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if there is at least that much
// coin in the Coins.
func (cs Coins) Contains(c Coin) bool {
	if c.IsZero() {
		return true
	}
	has, _ := cs.findCoin(c.ID())
	if has == nil {
		return false
	}
	return has.IsGTE(c)
}

// Balance returns the amount held of given ticker, zero if none.
func (cs Coins) Balance(ticker string) Coin {
	has, _ := cs.findCoin(ticker)
	if has == nil {
		return NewCoin(0, ticker)
	}
	return has.Clone()
}

// findCoin returns a coin and index that have this
// currency code.
//
// If there was a match, then result is non-nil, and the
// index is where it was. If there was no match, then
// result is nil, and index is where it should be
// (which may be between 0 and len(cs)).
func (cs Coins) findCoin(id string) (*Coin, int) {
	for i, c := range cs {
		switch strings.Compare(id, c.ID()) {
		case -1:
			return nil, i
		case 0:
			return c, i
		}
	}
	// hit the end, must append
	return nil, len(cs)
}

// IsEmpty returns if nothing is in the Coins
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// Equals returns true if both sets hold the same coins.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires that all coins are valid, positive and the set is in
// normalized form.
func (cs Coins) Validate() error {
	for i, c := range cs {
		if c == nil {
			return errors.Wrapf(errors.ErrEmpty, "coin %d", i)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if !c.IsPositive() {
			return errors.Wrapf(errors.ErrInvalidAmount, "non positive %s", c.Ticker)
		}
		if i > 0 && cs[i-1].Ticker >= c.Ticker {
			return errors.Wrap(errors.ErrInvalidState, "coins not normalized")
		}
	}
	return nil
}
