package cash

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

const maxMemoSize int = 128

// SendMsg moves funds from the source wallet to the destination wallet.
type SendMsg struct {
	Source      ledger.Address `json:"source"`
	Destination ledger.Address `json:"destination"`
	Amount      *coin.Coin     `json:"amount"`
	Memo        string         `json:"memo,omitempty"`
}

var _ ledger.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var err error
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		err = errors.AppendField(err, "Amount", errors.ErrInvalidAmount)
	} else {
		err = errors.AppendField(err, "Amount", m.Amount.Validate())
	}
	err = errors.AppendField(err, "Source", m.Source.Validate())
	err = errors.AppendField(err, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		err = errors.AppendField(err, "Memo", errors.ErrInvalidInput)
	}
	return err
}

// Payer is implemented by messages that carry a payment. The payment is
// moved from the caller's wallet into the custody account of the handling
// extension before the handler is called.
type Payer interface {
	ledger.Msg
	GetPayment() []*coin.Coin
}
