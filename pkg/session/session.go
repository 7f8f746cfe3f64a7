// Package session keeps live layout engines for interactive clients.
//
// A session owns one [layout.Engine]: the client creates it with a pipeline
// or an execution, then sends selection changes, hover events and new
// snapshots against the session id. Holding the engine between requests is
// what lets a selection change skip the full layout.
//
// # Usage
//
//	store := session.NewMemoryStore()
//
//	sess, err := session.New(engine, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
//
// Sessions expire after their TTL. Every successful Get extends the
// expiry, so an active client keeps its session alive.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/layout"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoEngine is returned when a session is created without an engine.
	ErrNoEngine = errors.New("session needs a layout engine")
)

// DefaultTTL is the default idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Session is one client's diagram.
type Session struct {
	ID        string
	Engine    *layout.Engine
	TTL       time.Duration
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch pushes the expiry one TTL into the future.
func (s *Session) Touch() {
	s.ExpiresAt = time.Now().Add(s.TTL)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID and extends its expiry.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting an unknown session returns ErrNotFound.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Len returns the number of stored sessions, expired or not.
	Len() int
}

// New creates a session around engine with a random id.
func New(engine *layout.Engine, ttl time.Duration) (*Session, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Engine:    engine,
		TTL:       ttl,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
