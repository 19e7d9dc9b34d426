package app

import (
	"context"

	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

// SessionService manages the lifecycle of viewer sessions.
type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, sessionID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, sessionID)
}

// Reset forgets the session so it starts again on the first case.
// A result of an inspection still in flight is discarded when it arrives.
func (s *SessionService) Reset(ctx context.Context, sessionID int64) (*entity.Session, error) {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, sessionID)
}
