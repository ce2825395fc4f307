// Package testutil provides shared helpers for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RawBody wraps a literal string for use as a request body.
func RawBody(body string) io.Reader {
	return strings.NewReader(body)
}

// PostJSON sends a JSON POST to a live test server.
func PostJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err, "failed to marshal request body")
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err, "request failed")
	return resp
}

// PostAuthed sends a JSON POST with a bearer token to a live test server.
func PostAuthed(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return doAuthed(t, http.MethodPost, url, token, body)
}

// PatchAuthed sends a JSON PATCH with a bearer token to a live test server.
func PatchAuthed(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return doAuthed(t, http.MethodPatch, url, token, body)
}

// GetAuthed sends a GET with a bearer token to a live test server.
func GetAuthed(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return doAuthed(t, http.MethodGet, url, token, nil)
}

// DeleteAuthed sends a DELETE with a bearer token to a live test server.
func DeleteAuthed(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return doAuthed(t, http.MethodDelete, url, token, nil)
}

func doAuthed(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "request failed")
	return resp
}

// Envelope mirrors the platform response wrapper with the data payload left
// raw so callers can decode it into their own type.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// DecodeEnvelope reads a live-server response body into an Envelope.
func DecodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env), "failed to decode envelope")
	return env
}

// DecodeData reads a live-server response and unmarshals the envelope data
// into the target type.
func DecodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	env := DecodeEnvelope(t, resp)
	require.True(t, env.Success, "expected a success envelope, got error %q", env.Error)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "failed to decode envelope data")
	return out
}

