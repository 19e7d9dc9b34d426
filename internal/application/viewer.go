package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

// View is a snapshot of a session together with the case it points at.
type View struct {
	Session entity.Session
	Case    entity.TestCase
	Total   int // number of cases in the catalog
}

// Viewer moves sessions through the catalog and runs inspections.
// Every state change goes through the repository, which serializes it per session.
type Viewer struct {
	catalog   port.CaseCatalog
	loader    port.ImageLoader
	inspector port.Inspector
	sessions  port.SessionRepository
	timeout   time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewViewer creates the controller. timeout bounds a single inspection.
func NewViewer(catalog port.CaseCatalog, loader port.ImageLoader, inspector port.Inspector, sessions port.SessionRepository, timeout time.Duration, log *zap.Logger) *Viewer {
	return &Viewer{
		catalog:   catalog,
		loader:    loader,
		inspector: inspector,
		sessions:  sessions,
		timeout:   timeout,
		now:       time.Now,
		log:       log,
	}
}

// Catalog returns the catalog the viewer pages through.
func (v *Viewer) Catalog() port.CaseCatalog {
	return v.catalog
}

// Current returns the session as it is now.
func (v *Viewer) Current(ctx context.Context, sessionID int64) (*View, error) {
	s, err := v.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return v.view(s), nil
}

// Next moves to the following case, wrapping after the last one.
func (v *Viewer) Next(ctx context.Context, sessionID int64) (*View, error) {
	return v.step(ctx, sessionID, 1)
}

// Previous moves to the preceding case, wrapping before the first one.
func (v *Viewer) Previous(ctx context.Context, sessionID int64) (*View, error) {
	return v.step(ctx, sessionID, -1)
}

func (v *Viewer) step(ctx context.Context, sessionID int64, delta int) (*View, error) {
	n := v.catalog.Len()
	return v.update(ctx, sessionID, func(s *entity.Session) error {
		s.MoveTo(((s.CaseIndex+delta)%n + n) % n)
		return nil
	})
}

// Select jumps to the case with the given id.
func (v *Viewer) Select(ctx context.Context, sessionID int64, caseID int) (*View, error) {
	index, ok := v.catalog.IndexOf(caseID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCaseNotFound, caseID)
	}
	return v.update(ctx, sessionID, func(s *entity.Session) error {
		s.MoveTo(index)
		return nil
	})
}

// ToggleReference shows or hides the ground truth overlay.
func (v *Viewer) ToggleReference(ctx context.Context, sessionID int64) (*View, error) {
	return v.update(ctx, sessionID, func(s *entity.Session) error {
		s.ShowReference = !s.ShowReference
		return nil
	})
}

// ToggleDefect shows or hides the defect annotation overlay.
func (v *Viewer) ToggleDefect(ctx context.Context, sessionID int64) (*View, error) {
	return v.update(ctx, sessionID, func(s *entity.Session) error {
		s.ShowDefect = !s.ShowDefect
		return nil
	})
}

// RunInspection loads the current case's image, sends it for analysis and
// stores the outcome in the session. Inspection failures end up in the session
// as PhaseFailed; the returned error is only ErrInspectionRunning or a storage error.
func (v *Viewer) RunInspection(ctx context.Context, sessionID int64) (*View, error) {
	if err := v.inspector.Ready(); err != nil {
		v.log.Warn("inspection not configured", zap.Int64("session_id", sessionID), zap.Error(err))
		return v.update(ctx, sessionID, func(s *entity.Session) error {
			s.Fail(failureText(err), v.now())
			return nil
		})
	}

	runID := uuid.New()
	started, err := v.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if s.Running() {
			return ErrInspectionRunning
		}
		s.Begin(runID)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInspectionRunning) && started != nil {
			return v.view(started), err
		}
		return nil, err
	}

	tc := v.catalog.At(started.CaseIndex)
	log := v.log.With(
		zap.Int64("session_id", sessionID),
		zap.Int("case_id", tc.ID),
		zap.String("run_id", runID.String()))
	log.Info("inspection started")

	report, runErr := v.inspect(ctx, tc, log)

	// The session must leave PhaseRunning even if the caller has gone away.
	return v.settle(context.WithoutCancel(ctx), sessionID, runID, report, runErr, log)
}

// inspect runs load and analysis; a panic in either is turned into an error.
func (v *Viewer) inspect(ctx context.Context, tc entity.TestCase, log *zap.Logger) (report string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during inspection", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	payload, err := v.loader.Load(ctx, tc.PrimaryImage)
	if err != nil {
		return "", err
	}
	return v.inspector.Inspect(ctx, payload)
}

func (v *Viewer) settle(ctx context.Context, sessionID int64, runID uuid.UUID, report string, runErr error, log *zap.Logger) (*View, error) {
	return v.update(ctx, sessionID, func(s *entity.Session) error {
		if s.RunID != runID || !s.Running() {
			log.Info("discarding stale inspection result", zap.String("phase", string(s.Phase)))
			return nil
		}
		if runErr != nil {
			log.Warn("inspection failed", zap.Error(runErr))
			s.Fail(failureText(runErr), v.now())
			return nil
		}
		log.Info("inspection completed", zap.Int("report_len", len(report)))
		s.Complete(report, v.now())
		return nil
	})
}

func (v *Viewer) update(ctx context.Context, sessionID int64, fn func(*entity.Session) error) (*View, error) {
	s, err := v.sessions.Update(ctx, sessionID, fn)
	if err != nil {
		return nil, err
	}
	return v.view(s), nil
}

func (v *Viewer) view(s *entity.Session) *View {
	return &View{
		Session: *s,
		Case:    v.catalog.At(s.CaseIndex),
		Total:   v.catalog.Len(),
	}
}

// failureText maps classified errors to their own message and anything else
// to the generic fallback.
func failureText(err error) string {
	var cfgErr *entity.ConfigurationError
	var loadErr *entity.LoadError
	var inspErr *entity.InspectionError
	switch {
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	case errors.As(err, &loadErr):
		return loadErr.Error()
	case errors.As(err, &inspErr) && inspErr.Message != "":
		return inspErr.Message
	default:
		return UnknownFailureText
	}
}
