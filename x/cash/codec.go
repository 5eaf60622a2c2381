package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

// WalletRecord is the protobuf representation of a Wallet.
type WalletRecord struct {
	Coins []*coin.CoinRecord `protobuf:"bytes,1,rep,name=coins,proto3" json:"coins,omitempty"`
}

func (m *WalletRecord) Reset()         { *m = WalletRecord{} }
func (m *WalletRecord) String() string { return proto.CompactTextString(m) }
func (*WalletRecord) ProtoMessage()    {}

// Marshal serializes the wallet using protobuf encoding.
func (w *Wallet) Marshal() ([]byte, error) {
	return proto.Marshal(&WalletRecord{Coins: coin.Records(w.Coins)})
}

// Unmarshal loads the wallet from its protobuf encoding.
func (w *Wallet) Unmarshal(raw []byte) error {
	var r WalletRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	cs, err := coin.FromRecords(r.Coins)
	if err != nil {
		return err
	}
	w.Coins = cs
	return nil
}
