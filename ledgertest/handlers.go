package ledgertest

import (
	"context"

	"github.com/tokenvault/ledger"
)

// Handler is a mock implementing ledger.Handler. It counts calls and
// returns the configured results.
type Handler struct {
	checkCall   int
	CheckResult ledger.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult ledger.DeliverResult
	DeliverErr    error

	// Write if set, is stored in the database on every call, before
	// returning the result.
	Write *[2][]byte
}

var _ ledger.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	h.checkCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	h.deliverCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db ledger.KVStore) error {
	if h.Write == nil {
		return nil
	}
	return db.Set(h.Write[0], h.Write[1])
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
