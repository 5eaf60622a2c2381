package oracle

import (
	"github.com/gogo/protobuf/proto"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// AttestationRecord is the protobuf representation of an Attestation.
type AttestationRecord struct {
	Oracle    []byte `protobuf:"bytes,1,opt,name=oracle,proto3" json:"oracle,omitempty"`
	DataKey   []byte `protobuf:"bytes,2,opt,name=data_key,json=dataKey,proto3" json:"data_key,omitempty"`
	Value     []byte `protobuf:"bytes,3,opt,name=value,proto3" json:"value,omitempty"`
	UpdatedAt int64  `protobuf:"varint,4,opt,name=updated_at,json=updatedAt,proto3" json:"updated_at,omitempty"`
}

func (m *AttestationRecord) Reset()         { *m = AttestationRecord{} }
func (m *AttestationRecord) String() string { return proto.CompactTextString(m) }
func (*AttestationRecord) ProtoMessage()    {}

// Marshal serializes the attestation using protobuf encoding.
func (a *Attestation) Marshal() ([]byte, error) {
	return proto.Marshal(&AttestationRecord{
		Oracle:    a.Oracle,
		DataKey:   a.DataKey,
		Value:     a.Value,
		UpdatedAt: int64(a.UpdatedAt),
	})
}

// Unmarshal loads the attestation from its protobuf encoding.
func (a *Attestation) Unmarshal(raw []byte) error {
	var r AttestationRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	*a = Attestation{
		Oracle:    ledger.Address(r.Oracle),
		DataKey:   r.DataKey,
		Value:     r.Value,
		UpdatedAt: ledger.UnixTime(r.UpdatedAt),
	}
	return nil
}
