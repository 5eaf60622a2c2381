package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/x/utils"
)

// countingDecorator counts calls on the way in and on the way out.
type countingDecorator struct {
	count int
	trace *[]string
	name  string
}

func (d *countingDecorator) Check(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	d.enter()
	res, err := next.Check(ctx, store, tx)
	if err == nil {
		d.count++
	}
	return res, err
}

func (d *countingDecorator) Deliver(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	d.enter()
	res, err := next.Deliver(ctx, store, tx)
	if err == nil {
		d.count++
	}
	return res, err
}

func (d *countingDecorator) enter() {
	d.count++
	if d.trace != nil {
		*d.trace = append(*d.trace, d.name)
	}
}

// panicHandler panics on every call.
type panicHandler struct{}

func (panicHandler) Check(context.Context, ledger.KVStore, ledger.Tx) (*ledger.CheckResult, error) {
	panic("check")
}

func (panicHandler) Deliver(context.Context, ledger.KVStore, ledger.Tx) (*ledger.DeliverResult, error) {
	panic("deliver")
}

func TestChain(t *testing.T) {
	var trace []string
	c1 := &countingDecorator{trace: &trace, name: "c1"}
	c2 := &countingDecorator{trace: &trace, name: "c2"}
	h := &ledgertest.Handler{}

	var nilDecorator *countingDecorator
	stack := ChainDecorators(c1, nil, utils.NewLogging()).
		Chain(nilDecorator, c2).
		WithHandler(h)

	ctx := context.Background()
	_, err := stack.Check(ctx, nil, &ledgertest.Tx{})
	assert.NoError(t, err)
	_, err = stack.Deliver(ctx, nil, &ledgertest.Tx{})
	assert.NoError(t, err)

	// decorators are counted double, once in, once out
	assert.Equal(t, 4, c1.count)
	assert.Equal(t, 4, c2.count)
	assert.Equal(t, 2, h.CallCount())
	assert.Equal(t, []string{"c1", "c2", "c1", "c2"}, trace)
}

func TestChainRecovers(t *testing.T) {
	outer := &countingDecorator{}
	inner := &countingDecorator{}
	stack := ChainDecorators(outer, utils.NewRecovery(), inner).WithHandler(panicHandler{})

	ctx := context.Background()
	_, err := stack.Check(ctx, nil, &ledgertest.Tx{})
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = stack.Deliver(ctx, nil, &ledgertest.Tx{})
	assert.True(t, errors.ErrPanic.Is(err))

	// the panic unwinds the inner decorator, the outer one only sees
	// the error
	assert.Equal(t, 2, outer.count)
	assert.Equal(t, 2, inner.count)
}

func TestChainLen(t *testing.T) {
	var nilDecorator *countingDecorator
	d := ChainDecorators(nil, nilDecorator, &countingDecorator{})
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 3, d.Chain(&countingDecorator{}, &countingDecorator{}).Len())
	assert.Equal(t, 1, d.Len())
}
