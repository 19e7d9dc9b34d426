package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
	"pcb-inspector/internal/httpapi/response"
)

// Viewer is the part of the view controller the API drives.
type Viewer interface {
	Current(ctx context.Context, sessionID int64) (*app.View, error)
	Next(ctx context.Context, sessionID int64) (*app.View, error)
	Previous(ctx context.Context, sessionID int64) (*app.View, error)
	Select(ctx context.Context, sessionID int64, caseID int) (*app.View, error)
	ToggleReference(ctx context.Context, sessionID int64) (*app.View, error)
	ToggleDefect(ctx context.Context, sessionID int64) (*app.View, error)
	RunInspection(ctx context.Context, sessionID int64) (*app.View, error)
}

// SessionResetter starts a session over from the first case.
type SessionResetter interface {
	Reset(ctx context.Context, sessionID int64) (*entity.Session, error)
}

// Handler serves the API routes.
type Handler struct {
	catalog  port.CaseCatalog
	viewer   Viewer
	sessions SessionResetter
	images   port.ImageLoader
	log      *zap.Logger
}

func NewHandler(catalog port.CaseCatalog, viewer Viewer, sessions SessionResetter, images port.ImageLoader, log *zap.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		viewer:   viewer,
		sessions: sessions,
		images:   images,
		log:      log,
	}
}

type caseResponse struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Images      map[string]string `json:"images"`
}

type sessionResponse struct {
	SessionID     int64        `json:"session_id"`
	Case          caseResponse `json:"case"`
	Position      int          `json:"position"` // 1-based
	Total         int          `json:"total"`
	ShowReference bool         `json:"show_reference"`
	ShowDefect    bool         `json:"show_defect"`
	Phase         string       `json:"phase"`
	Report        string       `json:"report,omitempty"`
	Error         string       `json:"error,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

func toCaseResponse(tc entity.TestCase) caseResponse {
	images := make(map[string]string, 3)
	for _, kind := range []entity.ImageKind{entity.ImagePrimary, entity.ImageReference, entity.ImageDefect} {
		images[string(kind)] = fmt.Sprintf("/api/v1/cases/%d/images/%s", tc.ID, kind)
	}
	return caseResponse{
		ID:          tc.ID,
		Name:        tc.Name,
		Description: tc.Description,
		Images:      images,
	}
}

func toSessionResponse(v *app.View) sessionResponse {
	resp := sessionResponse{
		SessionID:     v.Session.ID,
		Case:          toCaseResponse(v.Case),
		Position:      v.Session.CaseIndex + 1,
		Total:         v.Total,
		ShowReference: v.Session.ShowReference,
		ShowDefect:    v.Session.ShowDefect,
		Phase:         string(v.Session.Phase),
		Report:        v.Session.Report,
		Error:         v.Session.ErrorDetail,
	}
	if !v.Session.CompletedAt.IsZero() {
		at := v.Session.CompletedAt
		resp.CompletedAt = &at
	}
	return resp
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, map[string]any{"status": "ok", "cases": h.catalog.Len()})
}

// ListCases handles GET /api/v1/cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	cases := h.catalog.All()
	out := make([]caseResponse, 0, len(cases))
	for _, tc := range cases {
		out = append(out, toCaseResponse(tc))
	}
	response.JSON(w, out)
}

// GetCase handles GET /api/v1/cases/{caseID}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.lookupCase(w, r)
	if !ok {
		return
	}
	response.JSON(w, toCaseResponse(tc))
}

// GetCaseImage handles GET /api/v1/cases/{caseID}/images/{kind}.
func (h *Handler) GetCaseImage(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.lookupCase(w, r)
	if !ok {
		return
	}
	kind, ok := entity.ParseImageKind(chi.URLParam(r, "kind"))
	if !ok {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "kind must be one of primary, reference, defect")
		return
	}

	payload, err := h.images.Load(r.Context(), tc.Image(kind))
	if err != nil {
		h.log.Warn("load image", zap.Int("case_id", tc.ID), zap.String("kind", string(kind)), zap.Error(err))
		response.Error(w, http.StatusBadGateway, response.CodeImageUnavailable, err.Error())
		return
	}
	response.Image(w, payload.MIMEType, payload.Data)
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.Current)
}

// ResetSession handles DELETE /api/v1/sessions/{sessionID}.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, id int64) (*app.View, error) {
		if _, err := h.sessions.Reset(ctx, id); err != nil {
			return nil, err
		}
		return h.viewer.Current(ctx, id)
	})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.Next)
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.Previous)
}

// Select handles POST /api/v1/sessions/{sessionID}/select/{caseID}.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	caseID, err := strconv.Atoi(chi.URLParam(r, "caseID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "caseID must be an integer")
		return
	}
	h.withSession(w, r, func(ctx context.Context, id int64) (*app.View, error) {
		return h.viewer.Select(ctx, id, caseID)
	})
}

func (h *Handler) ToggleReference(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.ToggleReference)
}

func (h *Handler) ToggleDefect(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.ToggleDefect)
}

// RunInspection handles POST /api/v1/sessions/{sessionID}/inspection.
// It blocks until the inspection settles; the outcome is in the session body.
func (h *Handler) RunInspection(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.viewer.RunInspection)
}

func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*app.View, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "sessionID must be an integer")
		return
	}

	view, err := op(r.Context(), id)
	switch {
	case err == nil:
		response.JSON(w, toSessionResponse(view))
	case errors.Is(err, app.ErrInspectionRunning):
		response.Error(w, http.StatusConflict, response.CodeConflict, "An inspection is already running for this session")
	case errors.Is(err, app.ErrCaseNotFound):
		response.Error(w, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		h.log.Error("session operation", zap.Int64("session_id", id), zap.String("path", r.URL.Path), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred")
	}
}

func (h *Handler) lookupCase(w http.ResponseWriter, r *http.Request) (entity.TestCase, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "caseID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "caseID must be an integer")
		return entity.TestCase{}, false
	}
	index, ok := h.catalog.IndexOf(id)
	if !ok {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, fmt.Sprintf("case %d not found", id))
		return entity.TestCase{}, false
	}
	return h.catalog.At(index), true
}
