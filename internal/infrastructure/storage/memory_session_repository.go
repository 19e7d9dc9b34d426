package storage

import (
	"context"
	"sync"

	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

// MemorySessionRepository in-memory storage for viewer sessions.
// All changes go through one mutex, so updates of a session never interleave.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[int64]*entity.Session
}

// NewMemorySessionRepository creates an empty repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.Session),
	}
}

// Get returns a copy of the session, creating a new one if not found
func (r *MemorySessionRepository) Get(ctx context.Context, id int64) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(id)
	clone := *s
	return &clone, nil
}

// Update applies fn to a working copy and stores it only if fn succeeds
func (r *MemorySessionRepository) Update(ctx context.Context, id int64, fn func(*entity.Session) error) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := *r.lookup(id)
	if err := fn(&work); err != nil {
		current := *r.sessions[id]
		return &current, err
	}

	stored := work
	r.sessions[id] = &stored
	return &work, nil
}

// Delete drops the session; the next Get starts from scratch
func (r *MemorySessionRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	return nil
}

// lookup must be called with mu held
func (r *MemorySessionRepository) lookup(id int64) *entity.Session {
	s, exists := r.sessions[id]
	if !exists {
		s = entity.NewSession(id)
		r.sessions[id] = s
	}
	return s
}

// Interface check
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
