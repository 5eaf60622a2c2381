package escrow

import (
	"context"
	"strconv"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/gconf"
	"github.com/tokenvault/ledger/orm"
	"github.com/tokenvault/ledger/x"
	"github.com/tokenvault/ledger/x/cash"
)

// ConditionChecker verifies a single oracle condition. It must return
// ErrCondition if the condition is not fulfilled.
type ConditionChecker interface {
	Check(ctx context.Context, db ledger.ReadOnlyKVStore, oracle ledger.Address, dataKey, expected []byte) error
}

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, mover cash.CoinMover, checker ConditionChecker) {
	bucket := NewOfferBucket()
	r.Handle(&CreateOfferMsg{}, CreateOfferHandler{auth: auth, bucket: bucket})
	r.Handle(&CancelOfferMsg{}, CancelOfferHandler{auth: auth, bucket: bucket, mover: mover})
	r.Handle(&AcceptOfferMsg{}, AcceptOfferHandler{auth: auth, bucket: bucket, mover: mover, checker: checker})
	r.Handle(&CleanupExpiredMsg{}, CleanupExpiredHandler{bucket: bucket, mover: mover})
	r.Handle(&SetFeePercentageMsg{}, SetFeeHandler{auth: auth})
}

// CreateOfferHandler stores a new offer. The offered assets are expected
// to be in escrow custody already.
type CreateOfferHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = CreateOfferHandler{}

func (h CreateOfferHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h CreateOfferHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, creator, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, err
	}
	id, err := offerSeq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "offer sequence")
	}
	offer := &Offer{
		ID:          id,
		Creator:     creator,
		Recipient:   msg.Recipient,
		Offered:     msg.Payment,
		Expected:    msg.Expected,
		CreatedAt:   now,
		ExpiresAt:   msg.ExpiresAt,
		Status:      OfferActive,
		PlatformFee: PlatformFee(msg.Payment, conf.FeePercent),
		Conditions:  msg.Conditions,
	}
	key, err := h.bucket.Put(db, OfferKey(id), offer)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store offer")
	}
	return &ledger.DeliverResult{
		Data:   key,
		Events: []ledger.Event{offerEvent("offer_created", offer)},
	}, nil
}

func (h CreateOfferHandler) validate(ctx context.Context, tx ledger.Tx) (*CreateOfferMsg, ledger.Address, error) {
	var msg CreateOfferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !ledger.InTheFuture(ctx, msg.ExpiresAt) {
		return nil, nil, errors.Wrap(errors.ErrTiming, "expiration must be in the future")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	return &msg, signer.Address(), nil
}

// CancelOfferHandler returns the offered assets to the creator.
type CancelOfferHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	mover  cash.CoinMover
}

var _ ledger.Handler = CancelOfferHandler{}

func (h CancelOfferHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h CancelOfferHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	offer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := release(db, h.mover, offer, offer.Creator); err != nil {
		return nil, errors.Wrap(err, "refund")
	}
	offer.Status = OfferCancelled
	if _, err := h.bucket.Put(db, OfferKey(offer.ID), offer); err != nil {
		return nil, errors.Wrap(err, "cannot store offer")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{offerEvent("offer_cancelled", offer)},
	}, nil
}

func (h CancelOfferHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*Offer, error) {
	var msg CancelOfferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	offer, err := loadOffer(db, h.bucket, msg.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.Status != OfferActive {
		return nil, errors.Wrapf(errors.ErrInvalidState, "offer is %s", offer.Status)
	}
	if !h.auth.HasAddress(ctx, offer.Creator) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only the creator can cancel")
	}
	return offer, nil
}

// AcceptOfferHandler completes an offer. The payment of the recipient is
// expected to be in escrow custody already.
type AcceptOfferHandler struct {
	auth    x.Authenticator
	bucket  orm.ModelBucket
	mover   cash.CoinMover
	checker ConditionChecker
}

var _ ledger.Handler = AcceptOfferHandler{}

func (h AcceptOfferHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h AcceptOfferHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, offer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := release(db, h.mover, offer, offer.Recipient); err != nil {
		return nil, errors.Wrap(err, "release")
	}
	if err := cash.MoveAll(db, h.mover, CustodyAddress, offer.Creator, msg.Payment); err != nil {
		return nil, errors.Wrap(err, "forward payment")
	}
	offer.Status = OfferCompleted
	if _, err := h.bucket.Put(db, OfferKey(offer.ID), offer); err != nil {
		return nil, errors.Wrap(err, "cannot store offer")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{offerEvent("offer_completed", offer)},
	}, nil
}

func (h AcceptOfferHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*AcceptOfferMsg, *Offer, error) {
	var msg AcceptOfferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	offer, err := loadOffer(db, h.bucket, msg.OfferID)
	if err != nil {
		return nil, nil, err
	}
	if offer.Status != OfferActive {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "offer is %s", offer.Status)
	}
	if !h.auth.HasAddress(ctx, offer.Recipient) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the recipient can accept")
	}
	if ledger.InThePast(ctx, offer.ExpiresAt) {
		return nil, nil, errors.Wrap(errors.ErrTiming, "offer expired")
	}
	for i, c := range offer.Conditions {
		if err := h.checker.Check(ctx, db, c.Oracle, c.DataKey, c.ExpectedValue); err != nil {
			return nil, nil, errors.Wrapf(err, "condition %d", i)
		}
	}
	if !samePayment(msg.Payment, offer.Expected) {
		return nil, nil, errors.Wrap(errors.ErrInvalidAmount, "payment must equal the expected assets")
	}
	return &msg, offer, nil
}

func samePayment(paid, expected []*coin.Coin) bool {
	a, err := coin.Sum(paid)
	if err != nil {
		return false
	}
	b, err := coin.Sum(expected)
	if err != nil {
		return false
	}
	return a.Equals(b)
}

// CleanupExpiredHandler expires all offers past their expiration time.
type CleanupExpiredHandler struct {
	bucket orm.ModelBucket
	mover  cash.CoinMover
}

var _ ledger.Handler = CleanupExpiredHandler{}

func (h CleanupExpiredHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	var msg CleanupExpiredMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &ledger.CheckResult{}, nil
}

func (h CleanupExpiredHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	var msg CleanupExpiredMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	evts, err := expireOffers(ctx, db, h.bucket, h.mover)
	if err != nil {
		return nil, err
	}
	return &ledger.DeliverResult{
		Log:    strconv.Itoa(len(evts)) + " offers expired",
		Events: evts,
	}, nil
}

// expireOffers refunds and expires every active offer whose expiration
// time is strictly before the block time.
func expireOffers(ctx context.Context, db ledger.KVStore, bucket orm.ModelBucket, mover cash.CoinMover) ([]ledger.Event, error) {
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, err
	}
	var active []*Offer
	if _, err := bucket.ByIndex(db, "status", statusKey(OfferActive), &active); err != nil {
		return nil, errors.Wrap(err, "active offers")
	}
	var evts []ledger.Event
	for _, offer := range active {
		if offer.ExpiresAt >= now {
			continue
		}
		if err := release(db, mover, offer, offer.Creator); err != nil {
			return nil, errors.Wrapf(err, "refund offer %d", offer.ID)
		}
		offer.Status = OfferExpired
		if _, err := bucket.Put(db, OfferKey(offer.ID), offer); err != nil {
			return nil, errors.Wrapf(err, "cannot store offer %d", offer.ID)
		}
		evts = append(evts, offerEvent("offer_expired", offer))
	}
	return evts, nil
}

// SetFeeHandler updates the platform fee percentage.
type SetFeeHandler struct {
	auth x.Authenticator
}

var _ ledger.Handler = SetFeeHandler{}

func (h SetFeeHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h SetFeeHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf.FeePercent = msg.FeePercent
	if err := gconf.Save(db, ConfigurationPackage, conf); err != nil {
		return nil, errors.Wrap(err, "save configuration")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("fee_percentage_set", conf,
				"fee_percent", strconv.FormatInt(conf.FeePercent, 10)),
		},
	}, nil
}

func (h SetFeeHandler) validate(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*SetFeePercentageMsg, *Configuration, error) {
	var msg SetFeePercentageMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the owner can set the fee")
	}
	return &msg, conf, nil
}

// release pays out every offered asset line, minus the platform fee, from
// the escrow custody to the given address. All payouts are computed before
// the first transfer so an underflow moves nothing.
func release(db ledger.KVStore, mover cash.CoinMover, offer *Offer, to ledger.Address) error {
	payouts, err := Payouts(offer.Offered, offer.PlatformFee)
	if err != nil {
		return err
	}
	return cash.MoveAll(db, mover, CustodyAddress, to, payouts)
}

func loadOffer(db ledger.ReadOnlyKVStore, bucket orm.ModelBucket, id uint64) (*Offer, error) {
	var offer Offer
	if err := bucket.One(db, OfferKey(id), &offer); err != nil {
		return nil, errors.Wrapf(err, "offer %d", id)
	}
	return &offer, nil
}

func offerEvent(name string, o *Offer) ledger.Event {
	return ledger.NewEvent(name, o,
		"offer_id", strconv.FormatUint(o.ID, 10),
		"creator", o.Creator.String(),
		"recipient", o.Recipient.String(),
		"status", o.Status.String())
}
