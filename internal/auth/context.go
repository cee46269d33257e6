package auth

import (
	"context"

	"github.com/adpilot/adpilot/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// authContextKey is the context key for storing the AuthUser.
	authContextKey contextKey = "auth_user"
)

// ContextWithAuth adds an AuthUser to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthUser) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves the AuthUser from the context.
// Returns nil if not present.
func AuthFromContext(ctx context.Context) *model.AuthUser {
	auth, ok := ctx.Value(authContextKey).(*model.AuthUser)
	if !ok {
		return nil
	}
	return auth
}

// MustAuthFromContext retrieves the AuthUser from the context.
// Panics if not present (use only when auth middleware has run).
func MustAuthFromContext(ctx context.Context) *model.AuthUser {
	auth := AuthFromContext(ctx)
	if auth == nil {
		panic("auth context not found - ensure auth middleware is applied")
	}
	return auth
}

// UserIDFromContext is a convenience function to get user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.UserID
}

// KeyIDFromContext is a convenience function to get key ID from context.
// Returns empty string if not authenticated or on a session.
func KeyIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.KeyID
}
