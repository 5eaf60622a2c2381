package escrow

import (
	"math/big"
	"strconv"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

const (
	// BucketName is where all offers are stored.
	BucketName = "offer"

	maxConditions = 16
	maxDataSize   = 1024
)

// CustodyAddress is the account holding all assets locked by offers and
// the retained platform fees.
var CustodyAddress = ledger.NewCondition("escrow", "custody", []byte("offers")).Address()

// OfferStatus is the lifecycle state of an offer.
type OfferStatus int32

const (
	OfferActive OfferStatus = iota + 1
	OfferCompleted
	OfferCancelled
	OfferExpired
)

var statusNames = map[OfferStatus]string{
	OfferActive:    "active",
	OfferCompleted: "completed",
	OfferCancelled: "cancelled",
	OfferExpired:   "expired",
}

// String returns the lower case name of the status.
func (s OfferStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Validate returns an error if the status is unknown.
func (s OfferStatus) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "unknown status %d", s)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s OfferStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *OfferStatus) UnmarshalText(raw []byte) error {
	for st, name := range statusNames {
		if name == string(raw) {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidInput, "unknown status %q", raw)
}

// OracleCondition requires the oracle account to attest the expected value
// under the data key before an offer can be accepted.
type OracleCondition struct {
	Oracle        ledger.Address `json:"oracle"`
	DataKey       []byte         `json:"data_key"`
	ExpectedValue []byte         `json:"expected_value"`
}

// Validate returns an error if the condition cannot be evaluated.
func (c OracleCondition) Validate() error {
	var err error
	err = errors.AppendField(err, "Oracle", c.Oracle.Validate())
	if len(c.DataKey) == 0 {
		err = errors.AppendField(err, "DataKey", errors.ErrEmpty)
	} else if len(c.DataKey) > maxDataSize {
		err = errors.AppendField(err, "DataKey", errors.ErrInvalidInput)
	}
	if len(c.ExpectedValue) > maxDataSize {
		err = errors.AppendField(err, "ExpectedValue", errors.ErrInvalidInput)
	}
	return err
}

func validateConditions(cs []OracleCondition) error {
	if len(cs) > maxConditions {
		return errors.Wrapf(errors.ErrInvalidInput, "more than %d conditions", maxConditions)
	}
	var err error
	for i, c := range cs {
		err = errors.AppendField(err, strconv.Itoa(i), c.Validate())
	}
	return err
}

// Offer locks offered assets until the recipient pays the expected assets.
type Offer struct {
	ID          uint64            `json:"id"`
	Creator     ledger.Address    `json:"creator"`
	Recipient   ledger.Address    `json:"recipient"`
	Offered     []*coin.Coin      `json:"offered"`
	Expected    []*coin.Coin      `json:"expected"`
	CreatedAt   ledger.UnixTime   `json:"created_at"`
	ExpiresAt   ledger.UnixTime   `json:"expires_at"`
	Status      OfferStatus       `json:"status"`
	PlatformFee *big.Int          `json:"platform_fee"`
	Conditions  []OracleCondition `json:"conditions,omitempty"`
}

var _ orm.Model = (*Offer)(nil)

// Validate returns an error if the offer cannot be stored.
func (o *Offer) Validate() error {
	var err error
	if o.ID == 0 {
		err = errors.AppendField(err, "ID", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "Creator", o.Creator.Validate())
	err = errors.AppendField(err, "Recipient", o.Recipient.Validate())
	if len(o.Offered) == 0 {
		err = errors.AppendField(err, "Offered", errors.ErrEmpty)
	} else {
		err = errors.AppendField(err, "Offered", coin.ValidateList(o.Offered))
	}
	err = errors.AppendField(err, "Expected", coin.ValidateList(o.Expected))
	err = errors.AppendField(err, "CreatedAt", o.CreatedAt.Validate())
	if o.ExpiresAt <= o.CreatedAt {
		err = errors.AppendField(err, "ExpiresAt",
			errors.Wrap(errors.ErrInvalidInput, "must be after creation"))
	}
	err = errors.AppendField(err, "Status", o.Status.Validate())
	if o.PlatformFee == nil {
		err = errors.AppendField(err, "PlatformFee", errors.ErrEmpty)
	} else if o.PlatformFee.Sign() < 0 {
		err = errors.AppendField(err, "PlatformFee", errors.ErrInvalidAmount)
	}
	err = errors.AppendField(err, "Conditions", validateConditions(o.Conditions))
	return err
}

// NewOfferBucket returns a bucket storing offers under their ID, encoded
// as 8 bytes big endian, with an index on the status.
func NewOfferBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Offer{},
		orm.WithIDSequence(offerSeq),
		orm.WithIndex("status", statusIndexer, false),
	)
}

var offerSeq = orm.NewSequence(BucketName, "id")

// OfferKey returns the primary key of the offer with given ID.
func OfferKey(id uint64) []byte {
	return orm.EncodeSequence(id)
}

func statusIndexer(m orm.Model) ([]byte, error) {
	o, ok := m.(*Offer)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return statusKey(o.Status), nil
}

func statusKey(s OfferStatus) []byte {
	return []byte{byte(s)}
}
