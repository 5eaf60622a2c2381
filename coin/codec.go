package coin

import (
	"math/big"

	"github.com/gogo/protobuf/proto"
	"github.com/tokenvault/ledger/errors"
)

// CoinRecord is the protobuf representation of a coin. The amount is kept
// as a decimal string as protobuf has no arbitrary precision integer type.
type CoinRecord struct {
	Ticker string `protobuf:"bytes,1,opt,name=ticker,proto3" json:"ticker,omitempty"`
	Amount string `protobuf:"bytes,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *CoinRecord) Reset()         { *m = CoinRecord{} }
func (m *CoinRecord) String() string { return proto.CompactTextString(m) }
func (*CoinRecord) ProtoMessage()    {}

// Record returns the protobuf representation of the coin.
func (c Coin) Record() *CoinRecord {
	return &CoinRecord{Ticker: c.Ticker, Amount: c.amount().String()}
}

// FromRecord decodes a coin from its protobuf representation.
func FromRecord(r *CoinRecord) (Coin, error) {
	if r == nil {
		return Coin{}, errors.Wrap(errors.ErrEmpty, "coin record")
	}
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok {
		return Coin{}, errors.Wrapf(errors.ErrInvalidModel, "invalid amount %q", r.Amount)
	}
	return Coin{Ticker: r.Ticker, Amount: amount}, nil
}

// Records converts a list of coins, keeping their order.
func Records(cs []*Coin) []*CoinRecord {
	if len(cs) == 0 {
		return nil
	}
	res := make([]*CoinRecord, len(cs))
	for i, c := range cs {
		res[i] = c.Record()
	}
	return res
}

// FromRecords converts a list of records, keeping their order.
func FromRecords(rs []*CoinRecord) ([]*Coin, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	res := make([]*Coin, len(rs))
	for i, r := range rs {
		c, err := FromRecord(r)
		if err != nil {
			return nil, errors.Wrapf(err, "coin %d", i)
		}
		res[i] = &c
	}
	return res, nil
}

// BigRecord encodes an arbitrary precision amount for a protobuf record.
func BigRecord(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// FromBigRecord decodes an amount encoded with BigRecord.
func FromBigRecord(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "invalid amount %q", s)
	}
	return n, nil
}
