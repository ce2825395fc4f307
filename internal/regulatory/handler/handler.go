// Package handler exposes regulatory circulars over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodels "rbi-platform/internal/auth/models"
	"rbi-platform/internal/regulatory/models"
	"rbi-platform/internal/regulatory/service"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handler serves the /regulatory routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a regulatory handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the circular routes. Creation and acknowledgement need at
// least a compliance officer.
func (h *Handler) Register(r chi.Router) {
	r.Route("/circulars", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(
				h.logger,
				string(authmodels.RoleAdmin),
				string(authmodels.RoleComplianceOfficer),
			))
			r.Post("/", h.create)
			r.Patch("/{id}", h.update)
			r.Delete("/{id}", h.delete)
			r.Post("/{id}/acknowledge", h.acknowledge)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	circular, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, circular)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := models.Filter{
		Regulator: r.URL.Query().Get("regulator"),
		Tag:       r.URL.Query().Get("tag"),
		Status:    models.Status(r.URL.Query().Get("status")),
	}
	circulars, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circulars)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	circular, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circular)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	circular, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circular)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "circular deleted")
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	var req models.AcknowledgeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
			return
		}
	}
	result, err := h.svc.Acknowledge(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
