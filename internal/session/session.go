// Package session resolves the identity-provider session attached to a request.
//
// A session carries the caller's user id and the bearer access token that is
// forwarded to the external backend. Two strategies are supported:
//
//   - jwt: the session token is an HS256 JWT signed by the identity provider.
//     Claims carry the user id (uid), email and backend access token (at).
//   - database: the session token is opaque and looked up in a Store.
//
// Sessions are never issued or refreshed here outside of tests and tooling;
// the identity provider owns their lifecycle.
package session

import (
	"errors"
	"time"
)

var (
	// ErrNoSession is returned when the request carries no session token.
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired is returned for a session past its expiry.
	ErrSessionExpired = errors.New("session has expired")

	// ErrInvalidSession is returned for a malformed, unsigned or unknown token.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is an authenticated identity-provider session.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
// A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
