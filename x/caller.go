package x

import (
	"context"

	"github.com/tokenvault/ledger"
)

type callerKey struct{}

// WithCaller returns a context carrying the condition of the account that
// issued the current call. The runtime sets it once per call from the
// identity supplied by its front end.
func WithCaller(ctx context.Context, caller ledger.Condition) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerAuth authenticates the caller placed in the context by WithCaller.
type CallerAuth struct{}

var _ Authenticator = CallerAuth{}

// GetConditions returns the caller condition, if any.
func (CallerAuth) GetConditions(ctx context.Context) []ledger.Condition {
	c, ok := ctx.Value(callerKey{}).(ledger.Condition)
	if !ok || c == nil {
		return nil
	}
	return []ledger.Condition{c}
}

// HasAddress returns true if the caller owns given address.
func (a CallerAuth) HasAddress(ctx context.Context, addr ledger.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
