package store

import (
	"context"
	"errors"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/mastery"
	"github.com/abhisek/kakomon/internal/session"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// AttemptRepo stores immutable attempt records.
type AttemptRepo interface {
	// Insert stores a and returns its assigned id.
	Insert(ctx context.Context, a *attempt.Attempt) (int64, error)

	// ListByUser returns the user's attempts in chronological order.
	ListByUser(ctx context.Context, userID string) ([]attempt.Attempt, error)

	// ListAll returns every attempt in chronological order.
	ListAll(ctx context.Context) ([]attempt.Attempt, error)
}

// MasteryRepo stores one mastery record per (user, pattern).
type MasteryRepo interface {
	// Upsert inserts rec or replaces the existing record for its key.
	Upsert(ctx context.Context, rec mastery.Record) error

	// ListByUser returns the user's records ordered by pattern id.
	ListByUser(ctx context.Context, userID string) ([]mastery.Record, error)
}

// SessionRepo stores generated sessions.
type SessionRepo interface {
	// Insert stores s.
	Insert(ctx context.Context, s *session.Session) error

	// Get returns the session with the given id, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*session.Session, error)
}
