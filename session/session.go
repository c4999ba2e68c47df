// Package session holds the server-side record of authenticated browser
// sessions. Tokens are opaque; the only way to reach a record is through the
// Store operations.
package session

import (
	"slices"
	"time"
)

const (
	// TTL is the fixed lifetime of a session, measured from creation.
	TTL = 8 * time.Hour
	// tokenBytes is the amount of crypto/rand entropy per token (256 bits).
	tokenBytes = 32
)

// Store abstracts session CRUD. Each operation is atomic with respect to
// concurrent callers.
type Store interface {
	// Create issues a new token bound to username and allowedPages.
	Create(username string, allowedPages []string) (string, error)
	// Get returns the session for token. Unknown, empty and expired tokens
	// all report false; an expired entry is removed before returning.
	Get(token string) (Session, bool)
	// Delete removes token. Deleting a missing token is a no-op.
	Delete(token string)
}

// Session is the server-side state bound to a token.
type Session struct {
	Username     string
	AllowedPages []string
	CreatedAt    time.Time
}

func (s Session) clone() Session {
	s.AllowedPages = slices.Clone(s.AllowedPages)
	return s
}

// expired reports whether the session has reached its TTL at now.
func (s Session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) >= ttl
}
