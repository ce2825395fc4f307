package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/internal/documents/models"
	"rbi-platform/internal/documents/service"
	"rbi-platform/internal/documents/store"
	"rbi-platform/internal/platform/config"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
)

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func newService(maxBytes int64) (*service.Service, *store.InMemoryBlobStore) {
	blobs := store.NewBlobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		store.NewMetadataStore(), blobs, &captureAuditor{},
		config.Documents{MaxUploadBytes: maxBytes}, logger,
	)
	return svc, blobs
}

func upload(t *testing.T, svc *service.Service, filename, body string) *models.Document {
	t.Helper()
	doc, err := svc.Upload(context.Background(), &service.UploadRequest{
		Filename:    filename,
		ContentType: "application/pdf",
		LinkedType:  models.LinkedCircular,
		LinkedID:    "circ-1",
		Content:     strings.NewReader(body),
	})
	require.NoError(t, err)
	return doc
}

func TestUpload(t *testing.T) {
	t.Run("hashes and stores content", func(t *testing.T) {
		svc, _ := newService(1 << 20)
		doc := upload(t, svc, "circular.pdf", "pdf bytes")

		sum := sha256.Sum256([]byte("pdf bytes"))
		assert.Equal(t, hex.EncodeToString(sum[:]), doc.SHA256)
		assert.Equal(t, int64(len("pdf bytes")), doc.Size)

		got, content, err := svc.Content(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "pdf bytes", string(content))
		assert.Equal(t, doc.ID, got.ID)
	})

	t.Run("disallowed content type rejected", func(t *testing.T) {
		svc, _ := newService(1 << 20)
		_, err := svc.Upload(context.Background(), &service.UploadRequest{
			Filename:    "script.sh",
			ContentType: "application/x-sh",
			Content:     strings.NewReader("#!/bin/sh"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})

	t.Run("content type parameters are ignored", func(t *testing.T) {
		svc, _ := newService(1 << 20)
		_, err := svc.Upload(context.Background(), &service.UploadRequest{
			Filename:    "notes.txt",
			ContentType: "text/plain; charset=utf-8",
			Content:     strings.NewReader("notes"),
		})
		require.NoError(t, err)
	})

	t.Run("size cap enforced", func(t *testing.T) {
		svc, _ := newService(8)
		_, err := svc.Upload(context.Background(), &service.UploadRequest{
			Filename:    "big.pdf",
			ContentType: "application/pdf",
			Content:     strings.NewReader("123456789"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))

		// Exactly at the cap is fine.
		_, err = svc.Upload(context.Background(), &service.UploadRequest{
			Filename:    "ok.pdf",
			ContentType: "application/pdf",
			Content:     strings.NewReader("12345678"),
		})
		require.NoError(t, err)
	})

	t.Run("empty file rejected", func(t *testing.T) {
		svc, _ := newService(1 << 20)
		_, err := svc.Upload(context.Background(), &service.UploadRequest{
			Filename:    "empty.pdf",
			ContentType: "application/pdf",
			Content:     strings.NewReader(""),
		})
		require.Error(t, err)
	})
}

func TestDeduplication(t *testing.T) {
	svc, blobs := newService(1 << 20)
	first := upload(t, svc, "copy-a.pdf", "same bytes")
	second := upload(t, svc, "copy-b.pdf", "same bytes")

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.SHA256, second.SHA256)

	// Deleting one record keeps the shared blob alive.
	require.NoError(t, svc.Delete(context.Background(), first.ID))
	_, err := blobs.Get(context.Background(), second.SHA256)
	require.NoError(t, err)

	_, content, err := svc.Content(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, "same bytes", string(content))

	// Deleting the last record releases the blob.
	require.NoError(t, svc.Delete(context.Background(), second.ID))
	_, err = blobs.Get(context.Background(), second.SHA256)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestListByLink(t *testing.T) {
	svc, _ := newService(1 << 20)
	upload(t, svc, "linked.pdf", "a")
	_, err := svc.Upload(context.Background(), &service.UploadRequest{
		Filename:    "loose.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader("b"),
	})
	require.NoError(t, err)

	linked, err := svc.List(context.Background(), models.LinkedCircular, "circ-1")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "linked.pdf", linked[0].Filename)

	all, err := svc.List(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
