package usercontext

import (
	"context"
	"strings"
)

// UserContextKey is the request context key for the authenticated user ID.
type UserContextKey struct{}

// WithUserID stores the user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextKey{}, strings.TrimSpace(userID))
}

// UserIDFromContext returns the user ID from context, if set. Identity is
// asserted upstream by the fronting gateway; the service never mints users.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	value := ctx.Value(UserContextKey{})
	if typed, ok := value.(string); ok {
		typed = strings.TrimSpace(typed)
		if typed != "" {
			return typed, true
		}
	}
	return "", false
}
