package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisPhase is the state of the inspection in a session.
type AnalysisPhase string

const (
	PhaseIdle      AnalysisPhase = "idle"      // nothing requested since the last reset
	PhaseRunning   AnalysisPhase = "running"   // a request is in flight
	PhaseCompleted AnalysisPhase = "completed" // Report holds the answer
	PhaseFailed    AnalysisPhase = "failed"    // ErrorDetail holds the reason
)

// Session tracks what one viewer is looking at and the last inspection outcome.
type Session struct {
	ID            int64
	CaseIndex     int // position in the catalog
	ShowReference bool
	ShowDefect    bool
	Phase         AnalysisPhase
	Report        string
	ErrorDetail   string
	RunID         uuid.UUID // current inspection, uuid.Nil when none was started
	CompletedAt   time.Time
}

// NewSession creates a session on the first case with nothing shown.
func NewSession(id int64) *Session {
	return &Session{
		ID:    id,
		Phase: PhaseIdle,
	}
}

// MoveTo switches to another case and drops overlays and analysis.
func (s *Session) MoveTo(index int) {
	s.CaseIndex = index
	s.ShowReference = false
	s.ShowDefect = false
	s.clearAnalysis()
}

// Begin marks a new inspection as running.
func (s *Session) Begin(runID uuid.UUID) {
	s.clearAnalysis()
	s.Phase = PhaseRunning
	s.RunID = runID
}

// Complete stores the report of a finished inspection.
func (s *Session) Complete(report string, at time.Time) {
	s.Phase = PhaseCompleted
	s.Report = report
	s.ErrorDetail = ""
	s.CompletedAt = at
}

// Fail stores the reason an inspection did not produce a report.
func (s *Session) Fail(detail string, at time.Time) {
	s.Phase = PhaseFailed
	s.Report = ""
	s.ErrorDetail = detail
	s.CompletedAt = at
}

// Running reports whether an inspection is in flight.
func (s *Session) Running() bool {
	return s.Phase == PhaseRunning
}

func (s *Session) clearAnalysis() {
	s.Phase = PhaseIdle
	s.Report = ""
	s.ErrorDetail = ""
	s.RunID = uuid.Nil
	s.CompletedAt = time.Time{}
}
