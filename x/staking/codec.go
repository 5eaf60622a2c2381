package staking

import (
	"github.com/gogo/protobuf/proto"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
)

// PositionRecord is the protobuf representation of a Position.
type PositionRecord struct {
	Owner              []byte `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner,omitempty"`
	Staked             string `protobuf:"bytes,2,opt,name=staked,proto3" json:"staked,omitempty"`
	Rewards            string `protobuf:"bytes,3,opt,name=rewards,proto3" json:"rewards,omitempty"`
	LastAccrualAt      int64  `protobuf:"varint,4,opt,name=last_accrual_at,json=lastAccrualAt,proto3" json:"last_accrual_at,omitempty"`
	UnstakeRequestedAt int64  `protobuf:"varint,5,opt,name=unstake_requested_at,json=unstakeRequestedAt,proto3" json:"unstake_requested_at,omitempty"`
}

func (m *PositionRecord) Reset()         { *m = PositionRecord{} }
func (m *PositionRecord) String() string { return proto.CompactTextString(m) }
func (*PositionRecord) ProtoMessage()    {}

// Marshal serializes the position using protobuf encoding.
func (p *Position) Marshal() ([]byte, error) {
	return proto.Marshal(&PositionRecord{
		Owner:              p.Owner,
		Staked:             coin.BigRecord(p.Staked),
		Rewards:            coin.BigRecord(p.Rewards),
		LastAccrualAt:      int64(p.LastAccrualAt),
		UnstakeRequestedAt: int64(p.UnstakeRequestedAt),
	})
}

// Unmarshal loads the position from its protobuf encoding.
func (p *Position) Unmarshal(raw []byte) error {
	var r PositionRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	staked, err := coin.FromBigRecord(r.Staked)
	if err != nil {
		return errors.Wrap(err, "staked")
	}
	rewards, err := coin.FromBigRecord(r.Rewards)
	if err != nil {
		return errors.Wrap(err, "rewards")
	}
	*p = Position{
		Owner:              ledger.Address(r.Owner),
		Staked:             staked,
		Rewards:            rewards,
		LastAccrualAt:      ledger.UnixTime(r.LastAccrualAt),
		UnstakeRequestedAt: ledger.UnixTime(r.UnstakeRequestedAt),
	}
	return nil
}

// ConfigurationRecord is the protobuf representation of a Configuration.
type ConfigurationRecord struct {
	Owner             []byte `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner,omitempty"`
	Ticker            string `protobuf:"bytes,2,opt,name=ticker,proto3" json:"ticker,omitempty"`
	RewardRatePercent int64  `protobuf:"varint,3,opt,name=reward_rate_percent,json=rewardRatePercent,proto3" json:"reward_rate_percent,omitempty"`
	MinimumStake      string `protobuf:"bytes,4,opt,name=minimum_stake,json=minimumStake,proto3" json:"minimum_stake,omitempty"`
	UnstakeCooldown   int64  `protobuf:"varint,5,opt,name=unstake_cooldown,json=unstakeCooldown,proto3" json:"unstake_cooldown,omitempty"`
}

func (m *ConfigurationRecord) Reset()         { *m = ConfigurationRecord{} }
func (m *ConfigurationRecord) String() string { return proto.CompactTextString(m) }
func (*ConfigurationRecord) ProtoMessage()    {}

// Marshal serializes the configuration using protobuf encoding.
func (c *Configuration) Marshal() ([]byte, error) {
	return proto.Marshal(&ConfigurationRecord{
		Owner:             c.Owner,
		Ticker:            c.Ticker,
		RewardRatePercent: c.RewardRatePercent,
		MinimumStake:      coin.BigRecord(c.MinimumStake),
		UnstakeCooldown:   c.UnstakeCooldown,
	})
}

// Unmarshal loads the configuration from its protobuf encoding.
func (c *Configuration) Unmarshal(raw []byte) error {
	var r ConfigurationRecord
	if err := proto.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	min, err := coin.FromBigRecord(r.MinimumStake)
	if err != nil {
		return errors.Wrap(err, "minimum stake")
	}
	*c = Configuration{
		Owner:             ledger.Address(r.Owner),
		Ticker:            r.Ticker,
		RewardRatePercent: r.RewardRatePercent,
		MinimumStake:      min,
		UnstakeCooldown:   r.UnstakeCooldown,
	}
	return nil
}
