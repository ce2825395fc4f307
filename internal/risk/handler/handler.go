// Package handler exposes risk assessments over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodels "rbi-platform/internal/auth/models"
	"rbi-platform/internal/risk/models"
	"rbi-platform/internal/risk/service"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handler serves the /risk routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a risk handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the risk routes. Scoring needs at least analyst.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assessments", h.list)
	r.Get("/assessments/{id}", h.get)
	r.Get("/summary", h.summary)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(
			h.logger,
			string(authmodels.RoleAdmin),
			string(authmodels.RoleComplianceOfficer),
			string(authmodels.RoleAnalyst),
		))
		r.Post("/assessments", h.assess)
	})
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	assessment, err := h.svc.Assess(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, assessment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	assessments, err := h.svc.List(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessments)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessment)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
