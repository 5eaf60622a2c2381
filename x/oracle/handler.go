package oracle

import (
	"context"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
	"github.com/tokenvault/ledger/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, auth x.Authenticator) {
	r.Handle(&PublishMsg{}, NewPublishHandler(auth))
}

// PublishHandler stores attestations.
type PublishHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = PublishHandler{}

// NewPublishHandler returns a handler for PublishMsg.
func NewPublishHandler(auth x.Authenticator) PublishHandler {
	return PublishHandler{
		auth:   auth,
		bucket: NewAttestationBucket(),
	}
}

func (h PublishHandler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h PublishHandler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.Now(ctx)
	if err != nil {
		return nil, err
	}
	a := &Attestation{
		Oracle:    msg.Oracle,
		DataKey:   msg.DataKey,
		Value:     msg.Value,
		UpdatedAt: now,
	}
	if _, err := h.bucket.Put(db, attestationKey(msg.Oracle, msg.DataKey), a); err != nil {
		return nil, errors.Wrap(err, "cannot store attestation")
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("attestation_published", a,
				"oracle", msg.Oracle.String(),
				"data_key", string(msg.DataKey)),
		},
	}, nil
}

func (h PublishHandler) validate(ctx context.Context, tx ledger.Tx) (*PublishMsg, error) {
	var msg PublishMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Oracle) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only the oracle can publish")
	}
	return &msg, nil
}
