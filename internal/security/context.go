package security

import "context"

type contextKey string

const claimsKey contextKey = "caller-claims"

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// SystemClaims identifies offline tooling such as the seeder. It carries
// every authority the given roles name with both read and write scope.
func SystemClaims(roles ...string) *Claims {
	c := &Claims{Roles: roles, Scope: "read write"}
	c.Subject = "system"
	return c
}
