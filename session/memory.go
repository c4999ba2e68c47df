package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmcleod/agentgate/internal/util"
)

// MemoryStore is a thread-safe in-memory Store.
// Sessions are lost on server restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Session
	ttl  time.Duration
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory session store using TTL.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]Session),
		ttl:  TTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(username string, allowedPages []string) (string, error) {
	token, err := util.RandomToken(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	record := Session{
		Username:     username,
		AllowedPages: allowedPages,
		CreatedAt:    s.now(),
	}.clone()

	s.mu.Lock()
	s.data[token] = record
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Get(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[token]
	if !ok {
		return Session{}, false
	}
	if record.expired(s.now(), s.ttl) {
		delete(s.data, token)
		return Session{}, false
	}
	return record.clone(), true
}

func (s *MemoryStore) Delete(token string) {
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
}

// Len returns the number of stored entries, including expired entries that
// have not been looked up since they expired.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
