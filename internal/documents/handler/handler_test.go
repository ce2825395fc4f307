package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/internal/documents/models"
	"rbi-platform/internal/documents/service"
	"rbi-platform/internal/documents/store"
	"rbi-platform/internal/platform/config"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := discardLogger()
	auditor := audit.NewPublisher(audit.NewInMemoryStore(100), log)
	svc := service.New(store.NewMetadataStore(), store.NewBlobStore(), auditor,
		config.Documents{MaxUploadBytes: 1 << 20}, log)

	r := chi.NewRouter()
	r.Route("/api/v1/documents", New(svc, log).Register)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func uploadFile(t *testing.T, url, filename, contentType, linkedType, linkedID string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("linked_type", linkedType))
	require.NoError(t, mw.WriteField("linked_id", linkedID))
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUploadAndDownload(t *testing.T) {
	srv := newServer(t)
	payload := []byte("quarterly compliance attachment")

	resp := uploadFile(t, srv.URL+"/api/v1/documents", "report.pdf", "application/pdf", "item", "item-1", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := testutil.DecodeData[models.Document](t, resp)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.EqualValues(t, len(payload), doc.Size)

	resp, err := http.Get(srv.URL + "/api/v1/documents/" + doc.ID + "/content")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestUploadWithoutFilePart(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/documents", "multipart/form-data; boundary=x", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	srv := newServer(t)

	resp := uploadFile(t, srv.URL+"/api/v1/documents", "binary.exe", "application/octet-stream", "", "", []byte{0x4d, 0x5a})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListByLink(t *testing.T) {
	srv := newServer(t)

	resp := uploadFile(t, srv.URL+"/api/v1/documents", "a.txt", "text/plain", "circular", "circ-1", []byte("a"))
	resp.Body.Close()
	resp = uploadFile(t, srv.URL+"/api/v1/documents", "b.txt", "text/plain", "circular", "circ-2", []byte("b"))
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/documents?linked_type=circular&linked_id=circ-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := testutil.DecodeData[[]models.Document](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].Filename)
}

func TestDelete(t *testing.T) {
	srv := newServer(t)

	resp := uploadFile(t, srv.URL+"/api/v1/documents", "gone.txt", "text/plain", "", "", []byte("bye"))
	doc := testutil.DecodeData[models.Document](t, resp)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/documents/"+doc.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/documents/" + doc.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
