package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/infrastructure/storage"
)

func TestSessionService_Reset(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	_, err := repo.Update(ctx, 3, func(s *entity.Session) error {
		s.MoveTo(2)
		s.ShowDefect = true
		return nil
	})
	require.NoError(t, err)

	s, err := svc.Reset(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 0, s.CaseIndex)
	require.False(t, s.ShowDefect)
	require.Equal(t, entity.PhaseIdle, s.Phase)
}

func TestSessionService_Get(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())

	s, err := svc.Get(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, int64(9), s.ID)
}
