// Package httpapi exposes the case viewer over a JSON HTTP API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mw "pcb-inspector/internal/httpapi/middleware"
	"pcb-inspector/internal/httpapi/response"
)

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(h *Handler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger(log))
	r.Use(mw.Recovery(log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.CodeInvalidRequest, "Method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/cases", h.ListCases)
		r.Get("/cases/{caseID}", h.GetCase)
		r.Get("/cases/{caseID}/images/{kind}", h.GetCaseImage)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.ResetSession)
			r.Post("/next", h.Next)
			r.Post("/previous", h.Previous)
			r.Post("/select/{caseID}", h.Select)
			r.Post("/overlays/reference", h.ToggleReference)
			r.Post("/overlays/defect", h.ToggleDefect)
			r.Post("/inspection", h.RunInspection)
		})
	})

	return r
}
