package bearerhttp

import (
	"context"

	"github.com/ggoodman/magic-auth-go/auth"
)

// unexported, collision-proof context key
type resultKey struct{}

func withResult(ctx context.Context, s auth.Success) context.Context {
	return context.WithValue(ctx, resultKey{}, s)
}

// UserFromContext returns the user the verify callback passed to done.
func UserFromContext(ctx context.Context) (any, bool) {
	s, ok := ctx.Value(resultKey{}).(auth.Success)
	if !ok {
		return nil, false
	}
	return s.User, true
}

// InfoFromContext returns the optional info the verify callback passed to done.
func InfoFromContext(ctx context.Context) (*auth.Info, bool) {
	s, ok := ctx.Value(resultKey{}).(auth.Success)
	if !ok || s.Info == nil {
		return nil, false
	}
	return s.Info, true
}
