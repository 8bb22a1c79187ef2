// This file deals with carrying decoded claims within the request's context.Context,
// the standard way in Go to pass request-scoped values between middleware and handlers.
package auth

import (
	"context"
)

// `contextKey` is a custom type for context keys. Using a custom type prevents collisions
// with context keys defined in other packages.
type contextKey string

const (
	claimsContextKey contextKey = "auth_claims"
)

// NewContextWithClaims returns a child context carrying claims.
func NewContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the claims stored by NewContextWithClaims.
// The second return value indicates if claims were found.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
