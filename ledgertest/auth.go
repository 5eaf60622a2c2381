package ledgertest

import (
	"context"
	"fmt"

	"github.com/tokenvault/ledger"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer ledger.Condition

	// Signers represents an authentication of multiple signers.
	Signers []ledger.Condition
}

func (a *Auth) GetConditions(context.Context) []ledger.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx context.Context, addr ledger.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convinience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx context.Context, permissions ...ledger.Condition) context.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), permissions)
}

func (a *CtxAuth) GetConditions(ctx context.Context) []ledger.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]ledger.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []ledger.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx context.Context, addr ledger.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

type ctxAuthKey string
