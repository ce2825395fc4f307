// Package service handles document upload, retrieval, and deletion with
// content-addressed storage.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rbi-platform/internal/documents/models"
	"rbi-platform/internal/platform/config"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// allowedContentTypes is the upload allow-list. Office formats, PDF, and
// plain text cover the document classes regulators exchange.
var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"text/plain":         true,
	"text/csv":           true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/png":  true,
	"image/jpeg": true,
}

// MetadataStore persists document records.
type MetadataStore interface {
	Create(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id string) (models.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, linkedType models.LinkedType, linkedID string) ([]models.Document, error)
	CountByHash(ctx context.Context, sha256 string) (int, error)
}

// BlobStore persists content addressed by SHA256.
type BlobStore interface {
	Put(ctx context.Context, sha256 string, content []byte) error
	Get(ctx context.Context, sha256 string) ([]byte, error)
	Delete(ctx context.Context, sha256 string) error
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service ties metadata and blob storage together.
type Service struct {
	metadata MetadataStore
	blobs    BlobStore
	auditor  Auditor
	cfg      config.Documents
	logger   *slog.Logger
}

// New creates the document service.
func New(metadata MetadataStore, blobs BlobStore, auditor Auditor, cfg config.Documents, logger *slog.Logger) *Service {
	return &Service{metadata: metadata, blobs: blobs, auditor: auditor, cfg: cfg, logger: logger}
}

// UploadRequest carries one file plus its attachment target.
type UploadRequest struct {
	Filename    string
	ContentType string
	LinkedType  models.LinkedType
	LinkedID    string
	Content     io.Reader
}

// Upload validates, hashes, and stores a document. Identical content is
// stored once regardless of how many records point at it.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*models.Document, error) {
	if req == nil || req.Content == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "file content is required")
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "filename is required")
	}
	contentType := strings.TrimSpace(strings.Split(req.ContentType, ";")[0])
	if !allowedContentTypes[contentType] {
		return nil, apperrors.Newf(apperrors.CodeBadRequest, "content type %q is not allowed", contentType)
	}
	if !models.ValidLinkedType(req.LinkedType) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown linked_type")
	}

	// Read one byte past the cap to tell "exactly at the limit" from "over".
	content, err := io.ReadAll(io.LimitReader(req.Content, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to read upload")
	}
	if int64(len(content)) > s.cfg.MaxUploadBytes {
		return nil, apperrors.Newf(apperrors.CodeBadRequest, "file exceeds the %d byte limit", s.cfg.MaxUploadBytes)
	}
	if len(content) == 0 {
		return nil, apperrors.New(apperrors.CodeBadRequest, "file is empty")
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if err := s.blobs.Put(ctx, hash, content); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to store content")
	}

	doc := models.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		SHA256:      hash,
		LinkedType:  req.LinkedType,
		LinkedID:    req.LinkedID,
		UploadedBy:  requestcontext.UserID(ctx),
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.metadata.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionDocumentUploaded,
		ActorID: doc.UploadedBy,
		Subject: doc.ID,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record upload")
	}
	return &doc, nil
}

// Get returns a document's metadata.
func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.metadata.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns document records, optionally narrowed to one linked entity.
func (s *Service) List(ctx context.Context, linkedType models.LinkedType, linkedID string) ([]models.Document, error) {
	if !models.ValidLinkedType(linkedType) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown linked_type")
	}
	return s.metadata.List(ctx, linkedType, linkedID)
}

// Content returns a document's bytes along with its metadata.
func (s *Service) Content(ctx context.Context, id string) (*models.Document, []byte, error) {
	doc, err := s.metadata.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.blobs.Get(ctx, doc.SHA256)
	if err != nil {
		return nil, nil, err
	}
	return &doc, content, nil
}

// Delete removes a document record. The blob goes only when no other record
// shares its hash.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.metadata.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.metadata.Delete(ctx, id); err != nil {
		return err
	}

	remaining, err := s.metadata.CountByHash(ctx, doc.SHA256)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.blobs.Delete(ctx, doc.SHA256); err != nil {
			s.logger.WarnContext(ctx, "failed to release blob", "sha256", doc.SHA256, "error", err)
		}
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionDocumentDeleted,
		ActorID: requestcontext.UserID(ctx),
		Subject: id,
	}); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to record deletion")
	}
	return nil
}
