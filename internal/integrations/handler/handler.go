// Package handler exposes connector management over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rbi-platform/internal/auth/models"
	intmodels "rbi-platform/internal/integrations/models"
	"rbi-platform/internal/integrations/service"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handler serves the /integrations routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates an integrations handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the connector routes. Mutations are admin-only; reads and
// probes are open to any authenticated role.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/probe", h.probe)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, string(models.RoleAdmin)))
		r.Post("/", h.create)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/rotate-secret", h.rotateSecret)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req intmodels.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	result, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := intmodels.Kind(r.URL.Query().Get("kind"))
	connectors, err := h.svc.List(r.Context(), kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, connectors)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	connector, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, connector)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req intmodels.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	connector, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, connector)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "connector deleted")
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RotateSecret(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Probe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
