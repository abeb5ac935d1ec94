package ports

import (
	"context"
	"time"

	"goord/domain/core"
	"goord/domain/session"
)

// SessionRepository defines the interface for analysis session storage.
// Sessions exist only for the lifetime of the process; implementations
// are in-memory by contract (persistence is out of scope).
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID and refreshes its access time
	Get(ctx context.Context, id core.SessionID) (*session.Session, error)

	// Update replaces the stored session state
	Update(ctx context.Context, s *session.Session) error

	// Delete removes a session
	Delete(ctx context.Context, id core.SessionID) error

	// List returns all live sessions
	List(ctx context.Context) ([]*session.Session, error)

	// CleanupExpired drops sessions not accessed within ttl and
	// returns how many were removed
	CleanupExpired(ctx context.Context, ttl time.Duration) (int, error)
}
