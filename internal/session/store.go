package session

import (
	"context"
	"sync"
	"time"
)

// Store looks up opaque session tokens for the database strategy.
type Store interface {
	// Lookup returns the session for token or ErrInvalidSession when unknown.
	Lookup(ctx context.Context, token string) (*Session, error)
}

// InMemoryStore is an in-memory Store for development and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Put stores sess under token, replacing any previous session.
func (s *InMemoryStore) Put(token string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sess
}

// Delete removes token.
func (s *InMemoryStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Lookup returns a copy of the session stored under token.
func (s *InMemoryStore) Lookup(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}
	if sess.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}
