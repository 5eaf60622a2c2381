package ledger

import (
	"context"
	"regexp"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger/errors"
)

type contextKey int // local to the ledger package

const (
	contextKeyHeight contextKey = iota
	contextKeyChainID
	contextKeyLogger
	contextKeyTime
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// WithHeight sets the sequence number of the executed call. Calls are
// numbered like blocks, starting from 1.
func WithHeight(ctx context.Context, height int64) context.Context {
	if _, ok := GetHeight(ctx); ok {
		panic("Height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current call sequence number.
func GetHeight(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithChainID sets the chain id for the Context.
// panics if called with chain id already set
func WithChainID(ctx context.Context, chainID string) context.Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set")
	}
	if !IsValidChainID(chainID) {
		panic("Invalid chain ID")
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id.
// panics if chain id not already set (should never happen)
func GetChainID(ctx context.Context) string {
	if x := ctx.Value(contextKeyChainID); x == nil {
		panic("Chain id not yet set")
	}
	return ctx.Value(contextKeyChainID).(string)
}

// WithBlockTime sets the time of the executed call. It is the only clock
// that state transitions may use.
func WithBlockTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyTime, t)
}

// BlockTime returns the time of the executed call. An error is returned if
// the time was not set, as no code path should ever fall back to the wall
// clock.
func BlockTime(ctx context.Context) (time.Time, error) {
	t, ok := ctx.Value(contextKeyTime).(time.Time)
	if !ok {
		return t, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return t, nil
}

// Now returns the block time of given context as UnixTime.
func Now(ctx context.Context) (UnixTime, error) {
	t, err := BlockTime(ctx)
	if err != nil {
		return 0, err
	}
	return AsUnixTime(t), nil
}

// IsExpired returns true if given time is in the past as compared to the "now"
// as declared for the block. Expiration is inclusive, meaning that if current
// time is equal to the expiration time than this function returns true.
//
// This function panic if the block time is not provided in the context.
func IsExpired(ctx context.Context, t UnixTime) bool {
	now, err := Now(ctx)
	if err != nil {
		panic(err)
	}
	return t <= now
}

// InThePast returns true if given time is strictly before the block time.
//
// This function panic if the block time is not provided in the context.
func InThePast(ctx context.Context, t UnixTime) bool {
	now, err := Now(ctx)
	if err != nil {
		panic(err)
	}
	return t < now
}

// InTheFuture returns true if given time is strictly after the block time.
//
// This function panic if the block time is not provided in the context.
func InTheFuture(ctx context.Context, t UnixTime) bool {
	now, err := Now(ctx)
	if err != nil {
		panic(err)
	}
	return t > now
}

// WithLogger sets the logger for this Context
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}
