// Package model defines domain entities for the application.
package model

import "time"

// User represents an account created on first Google sign-in.
// Profile fields are refreshed from Google on each sign-in.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture,omitempty"`
	GoogleID  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthMethod identifies how a request was authenticated.
type AuthMethod string

const (
	// MethodSession is a browser session authenticated by a JWT bearer token.
	MethodSession AuthMethod = "session"
	// MethodAPIKey is programmatic access authenticated by a service key.
	MethodAPIKey AuthMethod = "api_key"
)

// AuthUser is the request-scoped identity injected by the auth middleware.
// It is ephemeral and never persisted.
type AuthUser struct {
	UserID string
	Email  string
	Name   string
	Method AuthMethod

	// KeyID, Scopes and RateLimitTier are set only for API key
	// authentication. Session users implicitly hold read and write
	// scopes.
	KeyID         string
	Scopes        []string
	RateLimitTier string
}

// EffectiveScopes returns the scopes this identity holds.
func (a *AuthUser) EffectiveScopes() []string {
	if a.Method == MethodSession {
		return []string{ScopeRead, ScopeWrite}
	}
	return a.Scopes
}
