package staking

import (
	"context"
	"math/big"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/gconf"
	"github.com/tokenvault/ledger/orm"
	"github.com/tokenvault/ledger/x"
	"github.com/tokenvault/ledger/x/cash"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, mover cash.CoinMover) {
	bucket := NewPositionBucket()
	r.Handle(&StakeMsg{}, StakeHandler{auth: auth, bucket: bucket})
	r.Handle(&RequestUnstakeMsg{}, RequestUnstakeHandler{auth: auth, bucket: bucket})
	r.Handle(&CompleteUnstakeMsg{}, CompleteUnstakeHandler{auth: auth, bucket: bucket, mover: mover})
	r.Handle(&ClaimRewardsMsg{}, ClaimRewardsHandler{auth: auth, bucket: bucket, mover: mover})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(
		ConfigurationPackage, &Configuration{}, auth, nil))
}

// caller returns the address of the main signer or ErrUnauthorized.
func caller(ctx context.Context, auth x.Authenticator) (ledger.Address, error) {
	signer := x.MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	return signer.Address(), nil
}

// StakeHandler creates or tops up the position of the caller. The staked
// amount is expected to be in staking custody already.
type StakeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = StakeHandler{}

func (h StakeHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h StakeHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, owner, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, err
	}

	pos, err := loadPosition(db, h.bucket, owner)
	switch {
	case err == nil:
		pos.Settle(now, conf.RewardRatePercent)
		pos.Staked = new(big.Int).Add(pos.Staked, msg.Amount.Amount)
	case errors.ErrNotFound.Is(err):
		pos = &Position{
			Owner:         owner,
			Staked:        new(big.Int).Set(msg.Amount.Amount),
			Rewards:       new(big.Int),
			LastAccrualAt: now,
		}
	default:
		return nil, err
	}
	if _, err := h.bucket.Put(db, owner, pos); err != nil {
		return nil, errors.Wrap(err, "cannot store position")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("stake", pos,
				"owner", owner.String(),
				"amount", msg.Amount.String()),
		},
	}, nil
}

func (h StakeHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*StakeMsg, ledger.Address, *Configuration, error) {
	var msg StakeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.Amount.Ticker != conf.Ticker {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidAmount, "only %s can be staked", conf.Ticker)
	}
	if msg.Amount.Amount.Cmp(conf.MinimumStake) < 0 {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidAmount, "minimum stake is %s", conf.MinimumStake)
	}
	owner, err := caller(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, owner, conf, nil
}

// RequestUnstakeHandler removes an amount from the stake of the caller and
// starts the cooldown.
type RequestUnstakeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = RequestUnstakeHandler{}

func (h RequestUnstakeHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h RequestUnstakeHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, pos, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, err
	}
	pos.Settle(now, conf.RewardRatePercent)
	// A new request restarts the cooldown of everything requested so far.
	pos.UnstakeRequestedAt = now
	pos.Staked = new(big.Int).Sub(pos.Staked, msg.Amount.Amount)
	if _, err := h.bucket.Put(db, pos.Owner, pos); err != nil {
		return nil, errors.Wrap(err, "cannot store position")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("unstake_request", pos,
				"owner", pos.Owner.String(),
				"amount", msg.Amount.String()),
		},
	}, nil
}

func (h RequestUnstakeHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*RequestUnstakeMsg, *Position, *Configuration, error) {
	var msg RequestUnstakeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.Amount.Ticker != conf.Ticker {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidAmount, "only %s can be unstaked", conf.Ticker)
	}
	owner, err := caller(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	pos, err := loadPosition(db, h.bucket, owner)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.Amount.Amount.Cmp(pos.Staked) > 0 {
		return nil, nil, nil, errors.Wrapf(errors.ErrUnderflow, "%s staked", pos.Staked)
	}
	return &msg, pos, conf, nil
}

// CompleteUnstakeHandler pays back the stake once the cooldown is over.
type CompleteUnstakeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	mover  cash.CoinMover
}

var _ ledger.Handler = CompleteUnstakeHandler{}

func (h CompleteUnstakeHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h CompleteUnstakeHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	pos, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// The whole remaining stake is released, not only the requested part.
	amount := coin.NewBigCoin(pos.Staked, conf.Ticker)
	if amount.IsPositive() {
		if err := h.mover.MoveCoins(db, CustodyAddress, pos.Owner, amount); err != nil {
			return nil, errors.Wrap(err, "release stake")
		}
	}
	if err := h.bucket.Delete(db, pos.Owner); err != nil {
		return nil, errors.Wrap(err, "cannot delete position")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("unstake_complete", pos,
				"owner", pos.Owner.String(),
				"amount", amount.String()),
		},
	}, nil
}

func (h CompleteUnstakeHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*Position, *Configuration, error) {
	var msg CompleteUnstakeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	owner, err := caller(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	pos, err := loadPosition(db, h.bucket, owner)
	if err != nil {
		return nil, nil, err
	}
	if pos.UnstakeRequestedAt == 0 {
		return nil, nil, errors.Wrap(errors.ErrInvalidState, "no unstake requested")
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, nil, err
	}
	if ready := pos.UnstakeRequestedAt.AddSeconds(conf.UnstakeCooldown); now < ready {
		return nil, nil, errors.Wrapf(errors.ErrTiming, "cooldown ends at %d", ready)
	}
	return pos, conf, nil
}

// ClaimRewardsHandler pays the accrued rewards of the caller.
type ClaimRewardsHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	mover  cash.CoinMover
}

var _ ledger.Handler = ClaimRewardsHandler{}

func (h ClaimRewardsHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h ClaimRewardsHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	pos, conf, accrued, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	paid := coin.NewBigCoin(pos.Rewards, conf.Ticker)
	if err := h.mover.MoveCoins(db, CustodyAddress, pos.Owner, paid); err != nil {
		return nil, errors.Wrap(err, "pay rewards")
	}
	pos.Rewards = new(big.Int)
	if _, err := h.bucket.Put(db, pos.Owner, pos); err != nil {
		return nil, errors.Wrap(err, "cannot store position")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("claim_rewards", paid,
				"owner", pos.Owner.String(),
				"amount", paid.String(),
				"accrued", coin.NewBigCoin(accrued, conf.Ticker).String()),
		},
	}, nil
}

// validate returns the position with rewards settled at the block time and
// the reward accrued by this settlement alone.
func (h ClaimRewardsHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*Position, *Configuration, *big.Int, error) {
	var msg ClaimRewardsMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	owner, err := caller(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	pos, err := loadPosition(db, h.bucket, owner)
	if err != nil {
		return nil, nil, nil, err
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	accrued := pos.Settle(now, conf.RewardRatePercent)
	if pos.Rewards.Sign() <= 0 {
		return nil, nil, nil, errors.Wrap(errors.ErrInvalidState, "no rewards to claim")
	}
	return pos, conf, accrued, nil
}
