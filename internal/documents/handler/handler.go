// Package handler exposes document upload and retrieval over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rbi-platform/internal/documents/models"
	"rbi-platform/internal/documents/service"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/httputil"
)

// Handler serves the /documents routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a documents handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/content", h.content)
	r.Delete("/{id}", h.delete)
}

// upload accepts multipart form data with a "file" part; linked_type and
// linked_id arrive as form fields.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(r.Context(), &service.UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		LinkedType:  models.LinkedType(r.FormValue("linked_type")),
		LinkedID:    r.FormValue("linked_id"),
		Content:     file,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context(),
		models.LinkedType(r.URL.Query().Get("linked_type")),
		r.URL.Query().Get("linked_id"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// content streams the raw bytes instead of the JSON envelope.
func (h *Handler) content(w http.ResponseWriter, r *http.Request) {
	doc, content, err := h.svc.Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", "attachment; filename=\""+doc.Filename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "document deleted")
}
