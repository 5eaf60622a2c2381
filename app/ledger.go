package app

import (
	"context"
	"sync"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/events"
	"github.com/tokenvault/ledger/x"
)

// tickPath is the path reported for events emitted by the ticker.
const tickPath = "tick"

// Call is a single request to the ledger.
type Call struct {
	// Caller is the identity of the account issuing the call.
	Caller ledger.Condition
	// Time is the block time the call is executed at. It must not be
	// earlier than the time of the previous call.
	Time time.Time
	// Tx is the serialized transaction.
	Tx []byte
}

// Ledger is the runtime executing calls one at a time against the
// committed state.
//
// Every call gets a context with chain id, height, block time, caller and
// logger. It runs on a cache wrap that is committed only if the handler
// succeeds. Events of a committed call are published to the sink.
type Ledger struct {
	mu sync.RWMutex

	store   *CommitStore
	decoder ledger.TxDecoder
	handler ledger.Handler
	ticker  ledger.Ticker
	init    ledger.Initializer
	sink    events.Sink
	logger  log.Logger

	chainID  string
	height   int64
	lastTime ledger.UnixTime
}

// NewLedger loads the runtime state from the store. Ticker can be nil.
func NewLedger(store ledger.CommitKVStore, decoder ledger.TxDecoder, handler ledger.Handler, ticker ledger.Ticker) (*Ledger, error) {
	l := &Ledger{
		store:   NewCommitStore(store),
		decoder: decoder,
		handler: handler,
		ticker:  ticker,
		logger:  ledger.DefaultLogger,
	}
	info, err := l.store.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(err, "commit info")
	}
	l.height = info.Version
	if l.chainID, err = loadChainID(l.store.ReadStore()); err != nil {
		return nil, err
	}
	if l.lastTime, err = loadLastTime(l.store.ReadStore()); err != nil {
		return nil, err
	}
	return l, nil
}

// WithInit is used to set the init function we call
func (l *Ledger) WithInit(init ledger.Initializer) *Ledger {
	l.init = init
	return l
}

// WithLogger sets the logger passed to every call.
func (l *Ledger) WithLogger(logger log.Logger) *Ledger {
	l.logger = logger
	return l
}

// WithSink sets the receiver of published events.
func (l *Ledger) WithSink(sink events.Sink) *Ledger {
	l.sink = sink
	return l
}

// ChainID returns the chain id set at genesis or an empty string.
func (l *Ledger) ChainID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chainID
}

// Height returns the number of committed calls, including genesis.
func (l *Ledger) Height() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.height
}

// LastTime returns the block time of the latest committed call.
func (l *Ledger) LastTime() ledger.UnixTime {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastTime
}

// InitChain stores the chain id and loads all extensions from the genesis
// options. It can be called only once for a store.
func (l *Ledger) InitChain(gen Genesis) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.chainID != "" {
		return errors.Wrapf(errors.ErrUnauthorized, "chain %q already initialized", l.chainID)
	}
	info, err := l.store.Apply(func(db ledger.CacheableKVStore) error {
		if err := saveChainID(db, gen.ChainID); err != nil {
			return err
		}
		if l.init == nil {
			return nil
		}
		return l.init.FromGenesis(gen.AppOptions, db)
	})
	if err != nil {
		return errors.Wrap(err, "init chain")
	}
	l.chainID = gen.ChainID
	l.height = info.Version
	l.logger.Info("chain initialized", "chain_id", gen.ChainID, "height", l.height)
	return nil
}

// Execute decodes and delivers a call. State changes and events are
// committed only when the whole call succeeds.
func (l *Ledger) Execute(ctx context.Context, call Call) (*ledger.DeliverResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now, err := l.admit(call.Time)
	if err != nil {
		return nil, err
	}
	tx, err := l.decoder(call.Tx)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	height := l.height + 1
	ctx = x.WithCaller(l.context(ctx, height, call.Time), call.Caller)

	var res *ledger.DeliverResult
	info, err := l.store.Apply(func(db ledger.CacheableKVStore) error {
		var err error
		if res, err = l.handler.Deliver(ctx, db, tx); err != nil {
			return err
		}
		return saveLastTime(db, now)
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &ledger.DeliverResult{}
	}
	l.committed(info, now)
	l.publish(height, now, ledger.GetPath(tx), res.Events)
	return res, nil
}

// Check runs the checks of a call without modifying the state.
func (l *Ledger) Check(ctx context.Context, call Call) (*ledger.CheckResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.admit(call.Time); err != nil {
		return nil, err
	}
	tx, err := l.decoder(call.Tx)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	ctx = x.WithCaller(l.context(ctx, l.height+1, call.Time), call.Caller)

	var res *ledger.CheckResult
	err = l.store.Dry(func(db ledger.CacheableKVStore) error {
		var err error
		res, err = l.handler.Check(ctx, db, tx)
		return err
	})
	return res, err
}

// Tick runs the ticker at given block time. A tick advances the ledger
// clock the same way a call does.
func (l *Ledger) Tick(ctx context.Context, t time.Time) (*ledger.TickResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now, err := l.admit(t)
	if err != nil {
		return nil, err
	}
	if l.ticker == nil {
		return &ledger.TickResult{}, nil
	}

	height := l.height + 1
	ctx = l.context(ctx, height, t)

	var res *ledger.TickResult
	info, err := l.store.Apply(func(db ledger.CacheableKVStore) error {
		var err error
		if res, err = l.ticker.Tick(ctx, db); err != nil {
			return err
		}
		return saveLastTime(db, now)
	})
	if err != nil {
		return nil, errors.Wrap(err, "tick")
	}
	if res == nil {
		res = &ledger.TickResult{}
	}
	l.committed(info, now)
	l.publish(height, now, tickPath, res.Events)
	return res, nil
}

// View gives read access to the committed state. Calls are blocked until
// fn returns.
func (l *Ledger) View(fn func(db ledger.ReadOnlyKVStore) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.store.ReadStore())
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Close()
}

// admit ensures the ledger is initialized and time does not go backwards.
func (l *Ledger) admit(t time.Time) (ledger.UnixTime, error) {
	if l.chainID == "" {
		return 0, errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}
	if t.IsZero() {
		return 0, errors.Wrap(errors.ErrEmpty, "block time")
	}
	now := ledger.AsUnixTime(t)
	if now < l.lastTime {
		return 0, errors.Wrapf(errors.ErrTiming, "time %s is before last call at %s", now, l.lastTime)
	}
	return now, nil
}

func (l *Ledger) context(ctx context.Context, height int64, t time.Time) context.Context {
	ctx = ledger.WithHeight(ctx, height)
	ctx = ledger.WithChainID(ctx, l.chainID)
	ctx = ledger.WithBlockTime(ctx, t)
	ctx = ledger.WithLogger(ctx, l.logger)
	return ledger.WithLogInfo(ctx, "height", height)
}

func (l *Ledger) committed(info ledger.CommitID, now ledger.UnixTime) {
	l.height = info.Version
	l.lastTime = now
}

func (l *Ledger) publish(height int64, now ledger.UnixTime, path string, evs []ledger.Event) {
	if l.sink == nil {
		return
	}
	for _, ev := range evs {
		l.sink.Publish(events.NewEnvelope(height, now, path, ev))
	}
}
