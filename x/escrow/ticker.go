package escrow

import (
	"context"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/orm"
	"github.com/tokenvault/ledger/x/cash"
)

// CleanupTicker expires offers at the beginning of every call batch, the
// same way CleanupExpiredMsg does.
type CleanupTicker struct {
	bucket orm.ModelBucket
	mover  cash.CoinMover
}

var _ ledger.Ticker = CleanupTicker{}

// NewCleanupTicker returns a ticker refunding expired offers with given
// mover.
func NewCleanupTicker(mover cash.CoinMover) CleanupTicker {
	return CleanupTicker{bucket: NewOfferBucket(), mover: mover}
}

// Tick expires all offers past their expiration time.
func (t CleanupTicker) Tick(ctx context.Context, db ledger.KVStore) (*ledger.TickResult, error) {
	evts, err := expireOffers(ctx, db, t.bucket, t.mover)
	if err != nil {
		return nil, err
	}
	if len(evts) > 0 {
		ledger.GetLogger(ctx).Info("offers expired", "count", len(evts))
	}
	return &ledger.TickResult{Events: evts}, nil
}
