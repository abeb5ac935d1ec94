// Package memstore is the in-memory session repository. Sessions are
// process-local by contract: the analysis holds no state beyond the
// running server.
package memstore

import (
	"context"
	"sync"
	"time"

	"goord/domain/core"
	"goord/domain/session"
)

// SessionStore implements ports.SessionRepository over a mutex-guarded map
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*session.Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[core.SessionID]*session.Session),
	}
}

// Create stores a new session
func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Get retrieves a session by ID and refreshes its access time
func (s *SessionStore) Get(ctx context.Context, id core.SessionID) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	sess.Touch()
	return sess, nil
}

// Update replaces the stored session state
func (s *SessionStore) Update(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return core.NewNotFoundError("session", sess.ID.String())
	}
	sess.Touch()
	s.sessions[sess.ID] = sess
	return nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return core.NewNotFoundError("session", id.String())
	}
	delete(s.sessions, id)
	return nil
}

// List returns all live sessions
func (s *SessionStore) List(ctx context.Context) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

// CleanupExpired drops sessions idle longer than ttl
func (s *SessionStore) CleanupExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := core.NewTimestamp(time.Now().Add(-ttl))
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.AccessedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
