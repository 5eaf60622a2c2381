package staking

import (
	"math/big"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

// BucketName is where all positions are stored.
const BucketName = "stake"

// CustodyAddress is the account holding all staked assets and the reward
// pool.
var CustodyAddress = ledger.NewCondition("staking", "custody", []byte("stakes")).Address()

// Position is the stake of a single account.
type Position struct {
	Owner   ledger.Address `json:"owner"`
	Staked  *big.Int       `json:"staked"`
	Rewards *big.Int       `json:"rewards"`
	// LastAccrualAt is the last time rewards were settled.
	LastAccrualAt ledger.UnixTime `json:"last_accrual_at"`
	// UnstakeRequestedAt is zero when no unstake was requested.
	UnstakeRequestedAt ledger.UnixTime `json:"unstake_requested_at"`
}

var _ orm.Model = (*Position)(nil)

// Validate returns an error if the position cannot be stored.
func (p *Position) Validate() error {
	var err error
	err = errors.AppendField(err, "Owner", p.Owner.Validate())
	err = errors.AppendField(err, "Staked", validateAmount(p.Staked))
	err = errors.AppendField(err, "Rewards", validateAmount(p.Rewards))
	err = errors.AppendField(err, "LastAccrualAt", p.LastAccrualAt.Validate())
	err = errors.AppendField(err, "UnstakeRequestedAt", p.UnstakeRequestedAt.Validate())
	return err
}

func validateAmount(n *big.Int) error {
	if n == nil {
		return errors.ErrEmpty
	}
	if n.Sign() < 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "negative")
	}
	return nil
}

// seconds in a day times a hundred percent
var rewardDivisor = big.NewInt(86400 * 100)

// AccruedReward returns the reward earned by staked over elapsed seconds
// at given yearly rate in percent. Divisions truncate and are done in the
// following order:
//
//   staked * (rate / 365) * elapsed / 8640000
//
// A non positive elapsed time earns nothing.
func AccruedReward(staked *big.Int, ratePercent int64, elapsed int64) *big.Int {
	if staked == nil || elapsed <= 0 {
		return new(big.Int)
	}
	daily := big.NewInt(ratePercent / 365)
	r := new(big.Int).Mul(staked, daily)
	r.Mul(r, big.NewInt(elapsed))
	return r.Quo(r, rewardDivisor)
}

// Settle moves the reward accrued since the last settlement into Rewards
// and sets the settlement time to now. It returns the reward added.
func (p *Position) Settle(now ledger.UnixTime, ratePercent int64) *big.Int {
	earned := AccruedReward(p.Staked, ratePercent, now.Since(p.LastAccrualAt))
	p.Rewards = new(big.Int).Add(rewardsOrZero(p.Rewards), earned)
	p.LastAccrualAt = now
	return earned
}

// Pending returns the rewards the owner would get when claiming at given
// time, without modifying the position.
func (p *Position) Pending(now ledger.UnixTime, ratePercent int64) *big.Int {
	earned := AccruedReward(p.Staked, ratePercent, now.Since(p.LastAccrualAt))
	return earned.Add(earned, rewardsOrZero(p.Rewards))
}

func rewardsOrZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

// NewPositionBucket returns a bucket storing positions under the owner
// address.
func NewPositionBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Position{})
}

func loadPosition(db ledger.ReadOnlyKVStore, bucket orm.ModelBucket, owner ledger.Address) (*Position, error) {
	var p Position
	if err := bucket.One(db, owner, &p); err != nil {
		return nil, errors.Wrapf(err, "position of %s", owner)
	}
	return &p, nil
}
