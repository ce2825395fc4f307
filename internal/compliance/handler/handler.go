// Package handler exposes compliance items and workflows over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodels "rbi-platform/internal/auth/models"
	"rbi-platform/internal/compliance/models"
	"rbi-platform/internal/compliance/service"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handler serves the /compliance routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a compliance handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the compliance routes. Reads are open to all authenticated
// roles; mutations need at least analyst.
func (h *Handler) Register(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Get("/{id}", h.getItem)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(
				h.logger,
				string(authmodels.RoleAdmin),
				string(authmodels.RoleComplianceOfficer),
				string(authmodels.RoleAnalyst),
			))
			r.Post("/", h.createItem)
			r.Patch("/{id}", h.updateItem)
			r.Delete("/{id}", h.deleteItem)
		})
	})

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", h.listWorkflows)
		r.Get("/{id}", h.getWorkflow)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(
				h.logger,
				string(authmodels.RoleAdmin),
				string(authmodels.RoleComplianceOfficer),
				string(authmodels.RoleAnalyst),
			))
			r.Post("/", h.createWorkflow)
			r.Patch("/{id}/tasks/{taskID}", h.transitionTask)
		})
	})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	item, err := h.svc.CreateItem(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	filter := models.ItemFilter{
		Status:   models.ItemStatus(r.URL.Query().Get("status")),
		Severity: models.Severity(r.URL.Query().Get("severity")),
		Category: r.URL.Query().Get("category"),
	}
	items, err := h.svc.ListItems(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "item deleted")
}

func (h *Handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	wf, err := h.svc.CreateWorkflow(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, wf)
}

func (h *Handler) listWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.svc.ListWorkflows(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, workflows)
}

func (h *Handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.svc.GetWorkflow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wf)
}

func (h *Handler) transitionTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	wf, err := h.svc.TransitionTask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "taskID"), req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wf)
}
