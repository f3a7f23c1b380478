package clinic

import (
	"context"

	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

// IdentityLocalsKey is where resolved identities live in the router
// context locals.
const IdentityLocalsKey = "identity"

type contextKey struct {
	name string
}

// WithIdentityContext sets the resolved Identity in the given context
func WithIdentityContext(r context.Context, identity Identity) context.Context {
	return context.WithValue(r, identityCtxKey, identity)
}

// IdentityFromContext finds the resolved identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// GetRouterIdentity extracts the resolved identity from the router context
func GetRouterIdentity(ctx router.Context) (Identity, bool) {
	raw := ctx.Locals(IdentityLocalsKey)
	if raw == nil {
		return nil, false
	}
	identity, ok := raw.(Identity)
	return identity, ok
}

// HasRole checks the resolved identity's role directly from the
// standard context. Use HasRoleFromRouter for router-based contexts.
func HasRole(ctx context.Context, allowed RoleSet) bool {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return allowed.Contains(identity.Role())
}

// HasRoleFromRouter checks the resolved identity's role directly from
// the router context
func HasRoleFromRouter(ctx router.Context, allowed RoleSet) bool {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return false
	}
	return allowed.Contains(identity.Role())
}
