// Package store persists document metadata and content.
package store

import (
	"context"
	"sort"
	"sync"

	"rbi-platform/internal/documents/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryMetadataStore keeps document records in a mutex-guarded map.
type InMemoryMetadataStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

// NewMetadataStore creates an empty metadata store.
func NewMetadataStore() *InMemoryMetadataStore {
	return &InMemoryMetadataStore{docs: make(map[string]models.Document)}
}

// Create inserts a document record.
func (s *InMemoryMetadataStore) Create(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "document already exists")
	}
	s.docs[doc.ID] = doc
	return nil
}

// FindByID returns a document record by its id.
func (s *InMemoryMetadataStore) FindByID(_ context.Context, id string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return models.Document{}, apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

// Delete removes a document record.
func (s *InMemoryMetadataStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	delete(s.docs, id)
	return nil
}

// List returns records newest first, optionally narrowed to one linked
// entity.
func (s *InMemoryMetadataStore) List(_ context.Context, linkedType models.LinkedType, linkedID string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if linkedType != "" && doc.LinkedType != linkedType {
			continue
		}
		if linkedID != "" && doc.LinkedID != linkedID {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountByHash reports how many records reference a content hash. The blob is
// only released when the last record goes.
func (s *InMemoryMetadataStore) CountByHash(_ context.Context, sha256 string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, doc := range s.docs {
		if doc.SHA256 == sha256 {
			count++
		}
	}
	return count, nil
}

// InMemoryBlobStore keeps content addressed by SHA256. Duplicate writes of
// the same hash are free.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore creates an empty blob store.
func NewBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put stores content under its hash. Existing content is left untouched.
func (s *InMemoryBlobStore) Put(_ context.Context, sha256 string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[sha256]; ok {
		return nil
	}
	blob := make([]byte, len(content))
	copy(blob, content)
	s.blobs[sha256] = blob
	return nil
}

// Get returns the content stored under a hash.
func (s *InMemoryBlobStore) Get(_ context.Context, sha256 string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[sha256]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "content not found")
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Delete removes the content stored under a hash.
func (s *InMemoryBlobStore) Delete(_ context.Context, sha256 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, sha256)
	return nil
}
