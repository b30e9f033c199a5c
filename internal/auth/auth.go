// Package auth answers whether the current caller has authorized an
// operation on behalf of an address.
package auth

import (
	"context"
	"fmt"

	"rentacar-ledger/internal/domain"
)

type Authorizer interface {
	// RequireAuth fails with domain.ErrAuthRequired unless the caller has
	// proven control of addr.
	RequireAuth(ctx context.Context, addr domain.Address) error
}

type callerKey struct{}

// WithCaller records the authenticated caller on ctx.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) (domain.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Address)
	return caller, ok && caller != ""
}

// ContextAuthorizer authorizes exactly the caller stored by WithCaller.
type ContextAuthorizer struct{}

func NewContextAuthorizer() ContextAuthorizer {
	return ContextAuthorizer{}
}

func (ContextAuthorizer) RequireAuth(ctx context.Context, addr domain.Address) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no caller for %s", domain.ErrAuthRequired, addr)
	}
	if caller != addr {
		return fmt.Errorf("%w: caller %s is not %s", domain.ErrAuthRequired, caller, addr)
	}
	return nil
}
