package port

import (
	"context"

	"pcb-inspector/internal/domain/entity"
)

// SessionRepository stores viewer sessions
type SessionRepository interface {
	// Get returns a copy of the session, creating a new one if not found
	Get(ctx context.Context, id int64) (*entity.Session, error)

	// Update applies fn to the session atomically and returns a copy of the result.
	// When fn returns an error the session is left unchanged.
	Update(ctx context.Context, id int64, fn func(*entity.Session) error) (*entity.Session, error)

	// Delete drops the session
	Delete(ctx context.Context, id int64) error
}
