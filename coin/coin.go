package coin

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strings"

	"github.com/tokenvault/ledger/errors"
)

// IsTicker is the RegExp to ensure valid asset identifiers. An identifier
// is an upper case name, optionally followed by a dash and a six
// characters long hex suffix, for example EGLD or WEGLD-bd4d79.
var IsTicker = regexp.MustCompile(`^[A-Z0-9]{3,10}(-[a-f0-9]{6})?$`).MatchString

// Coin is an amount of a single asset. Amount is an arbitrary precision
// unsigned integer expressed in the smallest unit of the asset.
type Coin struct {
	Ticker string
	Amount *big.Int
}

// NewCoin creates a new coin object
func NewCoin(amount int64, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: big.NewInt(amount),
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount int64, ticker string) *Coin {
	c := NewCoin(amount, ticker)
	return &c
}

// NewBigCoin creates a coin with a copy of given amount.
func NewBigCoin(amount *big.Int, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: new(big.Int).Set(amount),
	}
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

// amount returns the coin amount, treating nil as zero.
func (c Coin) amount() *big.Int {
	if c.Amount == nil {
		return new(big.Int)
	}
	return c.Amount
}

// Add combines two coins.
// Returns error if they are of different currencies.
func (c Coin) Add(o Coin) (Coin, error) {
	// If any of the coins represents no value and does not have a ticker
	// set then it has no influence on the addition result.
	if c.Ticker == "" && c.IsZero() {
		return o.Clone(), nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c.Clone(), nil
	}
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "adding %s to %s", o.Ticker, c.Ticker)
	}
	return Coin{
		Ticker: c.Ticker,
		Amount: new(big.Int).Add(c.amount(), o.amount()),
	}, nil
}

// Subtract given amount. Coins never hold a negative value, ErrUnderflow is
// returned if the amount is greater than this coin value.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	if amount.IsZero() {
		return c.Clone(), nil
	}
	if !c.SameType(amount) {
		return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "subtracting %s from %s", amount.Ticker, c.Ticker)
	}
	if c.amount().Cmp(amount.amount()) < 0 {
		return Coin{}, errors.Wrapf(errors.ErrUnderflow, "%s - %s", c, amount)
	}
	return Coin{
		Ticker: c.Ticker,
		Amount: new(big.Int).Sub(c.amount(), amount.amount()),
	}, nil
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	return c.amount().Cmp(o.amount())
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Compare(o) == 0
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.amount().Sign() == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.amount().Sign() > 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin
func (c Coin) Clone() Coin {
	return Coin{
		Ticker: c.Ticker,
		Amount: new(big.Int).Set(c.amount()),
	}
}

// Validate ensures that the coin has a valid currency code and a non
// negative amount.
func (c Coin) Validate() error {
	var err error
	if !IsTicker(c.Ticker) {
		err = errors.Append(err, errors.Wrapf(errors.ErrInvalidInput, "invalid ticker: %q", c.Ticker))
	}
	if c.Amount == nil {
		err = errors.Append(err, errors.Wrap(errors.ErrEmpty, "amount"))
	} else if c.Amount.Sign() < 0 {
		err = errors.Append(err, errors.Wrap(errors.ErrInvalidAmount, "negative amount"))
	}
	return err
}

// String provides a human readable representation of the coin in the same
// format that is accepted by ParseHumanFormat.
func (c Coin) String() string {
	if c.Ticker == "" {
		return c.amount().String()
	}
	return c.amount().String() + " " + c.Ticker
}

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//   "<amount> <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	chunks := strings.Fields(h)
	if len(chunks) != 2 {
		return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "invalid coin format %q", h)
	}
	amount, ok := new(big.Int).SetString(chunks[0], 10)
	if !ok {
		return Coin{}, errors.Wrapf(errors.ErrInvalidAmount, "invalid amount %q", chunks[0])
	}
	c := Coin{Ticker: chunks[1], Amount: amount}
	if err := c.Validate(); err != nil {
		return Coin{}, err
	}
	return c, nil
}

type jsonCoin struct {
	Ticker string `json:"ticker"`
	Amount string `json:"amount"`
}

// MarshalJSON encodes the amount as a decimal string so that no precision
// is lost by JSON clients.
func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonCoin{Ticker: c.Ticker, Amount: c.amount().String()})
}

// UnmarshalJSON accepts both the human readable "<amount> <ticker>" string
// and the object form {"ticker": ..., "amount": ...}.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var jc jsonCoin
	if err := json.Unmarshal(raw, &jc); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	amount, ok := new(big.Int).SetString(jc.Amount, 10)
	if !ok {
		return errors.Wrapf(errors.ErrInvalidAmount, "invalid amount %q", jc.Amount)
	}
	c.Ticker = jc.Ticker
	c.Amount = amount
	return nil
}
