// Package handler exposes the reporting endpoints over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmodels "rbi-platform/internal/auth/models"
	"rbi-platform/internal/reporting/service"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handler serves the /reports routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a reporting handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the reporting routes. The audit list is restricted to
// admins and compliance officers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(
			h.logger,
			string(authmodels.RoleAdmin),
			string(authmodels.RoleComplianceOfficer),
		))
		r.Get("/audit", h.auditEvents)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.svc.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) auditEvents(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		UserID:   r.URL.Query().Get("user_id"),
		Category: audit.EventCategory(r.URL.Query().Get("category")),
		Action:   r.URL.Query().Get("action"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	events, err := h.svc.AuditEvents(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
