package gallery

import (
	"context"

	"github.com/kozaktomas/snapx/internal/database"
)

// Principal is the acting identity of a request. The zero value is an
// anonymous guest. Owning a collection is the only capability there is.
type Principal struct {
	ID string
}

// Anonymous returns the guest principal.
func Anonymous() Principal {
	return Principal{}
}

// IsAnonymous reports whether no identity was established.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// Owns reports whether p is the owner of c.
func (p Principal) Owns(c *database.Collection) bool {
	return c != nil && !p.IsAnonymous() && p.ID == c.OwnerID
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or the anonymous guest.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous()
}
