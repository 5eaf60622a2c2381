package escrow

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/x/cash"
)

var (
	_ cash.Payer = (*CreateOfferMsg)(nil)
	_ cash.Payer = (*AcceptOfferMsg)(nil)
	_ ledger.Msg = (*CancelOfferMsg)(nil)
	_ ledger.Msg = (*CleanupExpiredMsg)(nil)
	_ ledger.Msg = (*SetFeePercentageMsg)(nil)
)

// CreateOfferMsg locks the attached payment in a new offer.
type CreateOfferMsg struct {
	Recipient  ledger.Address    `json:"recipient"`
	Expected   []*coin.Coin      `json:"expected"`
	ExpiresAt  ledger.UnixTime   `json:"expires_at"`
	Conditions []OracleCondition `json:"conditions,omitempty"`
	// Payment is the offered assets. It is moved into escrow custody
	// before the message is handled.
	Payment []*coin.Coin `json:"payment"`
}

// Path returns the routing path for this message
func (CreateOfferMsg) Path() string {
	return "escrow/create_offer"
}

// GetPayment returns the offered assets.
func (m *CreateOfferMsg) GetPayment() []*coin.Coin {
	return m.Payment
}

// Validate makes sure that this is sensible
func (m *CreateOfferMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "Recipient", m.Recipient.Validate())
	err = errors.AppendField(err, "Expected", coin.ValidateList(m.Expected))
	if m.ExpiresAt == 0 {
		err = errors.AppendField(err, "ExpiresAt", errors.ErrEmpty)
	} else {
		err = errors.AppendField(err, "ExpiresAt", m.ExpiresAt.Validate())
	}
	err = errors.AppendField(err, "Conditions", validateConditions(m.Conditions))
	if len(m.Payment) == 0 {
		err = errors.AppendField(err, "Payment", errors.ErrEmpty)
	} else {
		err = errors.AppendField(err, "Payment", coin.ValidateList(m.Payment))
	}
	return err
}

// CancelOfferMsg returns the offered assets, minus the platform fee, to the
// creator.
type CancelOfferMsg struct {
	OfferID uint64 `json:"offer_id"`
}

// Path returns the routing path for this message
func (CancelOfferMsg) Path() string {
	return "escrow/cancel_offer"
}

// Validate makes sure that this is sensible
func (m *CancelOfferMsg) Validate() error {
	if m.OfferID == 0 {
		return errors.Field("OfferID", errors.ErrEmpty, "")
	}
	return nil
}

// AcceptOfferMsg pays the expected assets and releases the offered assets,
// minus the platform fee, to the recipient.
type AcceptOfferMsg struct {
	OfferID uint64 `json:"offer_id"`
	// Payment must be equal to the expected assets of the offer. It is
	// moved into escrow custody before the message is handled and then
	// forwarded to the creator.
	Payment []*coin.Coin `json:"payment"`
}

// Path returns the routing path for this message
func (AcceptOfferMsg) Path() string {
	return "escrow/accept_offer"
}

// GetPayment returns the expected assets paid by the recipient.
func (m *AcceptOfferMsg) GetPayment() []*coin.Coin {
	return m.Payment
}

// Validate makes sure that this is sensible
func (m *AcceptOfferMsg) Validate() error {
	var err error
	if m.OfferID == 0 {
		err = errors.AppendField(err, "OfferID", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "Payment", coin.ValidateList(m.Payment))
	return err
}

// CleanupExpiredMsg expires all active offers past their expiration time.
// Anyone can send it.
type CleanupExpiredMsg struct{}

// Path returns the routing path for this message
func (CleanupExpiredMsg) Path() string {
	return "escrow/cleanup_expired"
}

// Validate makes sure that this is sensible
func (CleanupExpiredMsg) Validate() error {
	return nil
}

// SetFeePercentageMsg changes the platform fee used for offers created
// afterwards. Only the configuration owner can send it.
type SetFeePercentageMsg struct {
	FeePercent int64 `json:"fee_percent"`
}

// Path returns the routing path for this message
func (SetFeePercentageMsg) Path() string {
	return "escrow/set_fee_percentage"
}

// Validate makes sure that this is sensible
func (m *SetFeePercentageMsg) Validate() error {
	return errors.Field("FeePercent", validateFeePercent(m.FeePercent), "")
}
