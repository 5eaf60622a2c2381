package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

// OracleConditionRecord is the protobuf representation of an
// OracleCondition.
type OracleConditionRecord struct {
	Oracle        []byte `protobuf:"bytes,1,opt,name=oracle,proto3" json:"oracle,omitempty"`
	DataKey       []byte `protobuf:"bytes,2,opt,name=data_key,json=dataKey,proto3" json:"data_key,omitempty"`
	ExpectedValue []byte `protobuf:"bytes,3,opt,name=expected_value,json=expectedValue,proto3" json:"expected_value,omitempty"`
}

func (m *OracleConditionRecord) Reset()         { *m = OracleConditionRecord{} }
func (m *OracleConditionRecord) String() string { return proto.CompactTextString(m) }
func (*OracleConditionRecord) ProtoMessage()    {}

// OfferRecord is the protobuf representation of an Offer.
type OfferRecord struct {
	ID          uint64                   `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Creator     []byte                   `protobuf:"bytes,2,opt,name=creator,proto3" json:"creator,omitempty"`
	Recipient   []byte                   `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient,omitempty"`
	Offered     []*coin.CoinRecord       `protobuf:"bytes,4,rep,name=offered,proto3" json:"offered,omitempty"`
	Expected    []*coin.CoinRecord       `protobuf:"bytes,5,rep,name=expected,proto3" json:"expected,omitempty"`
	CreatedAt   int64                    `protobuf:"varint,6,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
	ExpiresAt   int64                    `protobuf:"varint,7,opt,name=expires_at,json=expiresAt,proto3" json:"expires_at,omitempty"`
	Status      int32                    `protobuf:"varint,8,opt,name=status,proto3" json:"status,omitempty"`
	PlatformFee string                   `protobuf:"bytes,9,opt,name=platform_fee,json=platformFee,proto3" json:"platform_fee,omitempty"`
	Conditions  []*OracleConditionRecord `protobuf:"bytes,10,rep,name=conditions,proto3" json:"conditions,omitempty"`
}

func (m *OfferRecord) Reset()         { *m = OfferRecord{} }
func (m *OfferRecord) String() string { return proto.CompactTextString(m) }
func (*OfferRecord) ProtoMessage()    {}

// Marshal serializes the offer using protobuf encoding.
func (o *Offer) Marshal() ([]byte, error) {
	r := &OfferRecord{
		ID:          o.ID,
		Creator:     o.Creator,
		Recipient:   o.Recipient,
		Offered:     coin.Records(o.Offered),
		Expected:    coin.Records(o.Expected),
		CreatedAt:   int64(o.CreatedAt),
		ExpiresAt:   int64(o.ExpiresAt),
		Status:      int32(o.Status),
		PlatformFee: coin.BigRecord(o.PlatformFee),
	}
	for _, c := range o.Conditions {
		r.Conditions = append(r.Conditions, &OracleConditionRecord{
			Oracle:        c.Oracle,
			DataKey:       c.DataKey,
			ExpectedValue: c.ExpectedValue,
		})
	}
	return proto.Marshal(r)
}

// Unmarshal loads the offer from its protobuf encoding.
func (o *Offer) Unmarshal(raw []byte) error {
	var r OfferRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	offered, err := coin.FromRecords(r.Offered)
	if err != nil {
		return errors.Wrap(err, "offered")
	}
	expected, err := coin.FromRecords(r.Expected)
	if err != nil {
		return errors.Wrap(err, "expected")
	}
	fee, err := coin.FromBigRecord(r.PlatformFee)
	if err != nil {
		return errors.Wrap(err, "platform fee")
	}
	var conds []OracleCondition
	for _, c := range r.Conditions {
		conds = append(conds, OracleCondition{
			Oracle:        ledger.Address(c.Oracle),
			DataKey:       c.DataKey,
			ExpectedValue: c.ExpectedValue,
		})
	}
	*o = Offer{
		ID:          r.ID,
		Creator:     ledger.Address(r.Creator),
		Recipient:   ledger.Address(r.Recipient),
		Offered:     offered,
		Expected:    expected,
		CreatedAt:   ledger.UnixTime(r.CreatedAt),
		ExpiresAt:   ledger.UnixTime(r.ExpiresAt),
		Status:      OfferStatus(r.Status),
		PlatformFee: fee,
		Conditions:  conds,
	}
	return nil
}

// ConfigurationRecord is the protobuf representation of a Configuration.
type ConfigurationRecord struct {
	Owner      []byte `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner,omitempty"`
	FeePercent int64  `protobuf:"varint,2,opt,name=fee_percent,json=feePercent,proto3" json:"fee_percent,omitempty"`
}

func (m *ConfigurationRecord) Reset()         { *m = ConfigurationRecord{} }
func (m *ConfigurationRecord) String() string { return proto.CompactTextString(m) }
func (*ConfigurationRecord) ProtoMessage()    {}

// Marshal serializes the configuration using protobuf encoding.
func (c *Configuration) Marshal() ([]byte, error) {
	return proto.Marshal(&ConfigurationRecord{Owner: c.Owner, FeePercent: c.FeePercent})
}

// Unmarshal loads the configuration from its protobuf encoding.
func (c *Configuration) Unmarshal(raw []byte) error {
	var r ConfigurationRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	c.Owner = ledger.Address(r.Owner)
	c.FeePercent = r.FeePercent
	return nil
}
