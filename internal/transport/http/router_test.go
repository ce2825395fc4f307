package httptransport

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhandler "rbi-platform/internal/auth/handler"
	"rbi-platform/internal/auth/jwt"
	authmodels "rbi-platform/internal/auth/models"
	authservice "rbi-platform/internal/auth/service"
	"rbi-platform/internal/auth/store/refresh"
	"rbi-platform/internal/auth/store/revocation"
	"rbi-platform/internal/auth/store/session"
	"rbi-platform/internal/auth/store/user"
	compliancehandler "rbi-platform/internal/compliance/handler"
	compliancemodels "rbi-platform/internal/compliance/models"
	complianceservice "rbi-platform/internal/compliance/service"
	compliancestore "rbi-platform/internal/compliance/store"
	documenthandler "rbi-platform/internal/documents/handler"
	documentservice "rbi-platform/internal/documents/service"
	documentstore "rbi-platform/internal/documents/store"
	integrationhandler "rbi-platform/internal/integrations/handler"
	integrationservice "rbi-platform/internal/integrations/service"
	integrationstore "rbi-platform/internal/integrations/store"
	notificationhandler "rbi-platform/internal/notifications/handler"
	notificationservice "rbi-platform/internal/notifications/service"
	notificationstore "rbi-platform/internal/notifications/store"
	"rbi-platform/internal/platform/config"
	"rbi-platform/internal/ratelimit"
	regulatoryhandler "rbi-platform/internal/regulatory/handler"
	regulatorymodels "rbi-platform/internal/regulatory/models"
	regulatoryservice "rbi-platform/internal/regulatory/service"
	regulatorystore "rbi-platform/internal/regulatory/store"
	reportinghandler "rbi-platform/internal/reporting/handler"
	reportingservice "rbi-platform/internal/reporting/service"
	riskhandler "rbi-platform/internal/risk/handler"
	riskservice "rbi-platform/internal/risk/service"
	riskstore "rbi-platform/internal/risk/store"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires the whole platform on in-memory stores, the same shape
// main builds, minus Prometheus registration.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := discardLogger()

	jwtCfg := config.JWT{
		SigningKey:      "router-test-signing-key",
		Issuer:          "rbi-platform-test",
		Audience:        "rbi-platform-test-api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	rlCfg := config.RateLimit{
		PublicLimit:     1000,
		PublicWindow:    time.Minute,
		AuthLimit:       1000,
		AuthWindow:      time.Minute,
		LockoutAttempts: 5,
		LockoutWindow:   15 * time.Minute,
	}

	auditStore := audit.NewInMemoryStore(1000)
	auditor := audit.NewPublisher(auditStore, log)

	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryWindowStore(), rlCfg)
	limitMiddleware := ratelimit.New(limiter, log)

	tokens := jwt.NewService(jwtCfg.SigningKey, jwtCfg.Issuer, jwtCfg.Audience)
	revocations := revocation.NewInMemoryStore(jwtCfg.AccessTokenTTL)
	authSvc := authservice.New(
		user.New(), session.New(), refresh.New(), revocations,
		tokens, auditor, limiter, nil, log, jwtCfg,
	)

	notificationSvc := notificationservice.New(notificationstore.New(), auditor, log)

	connectorStore := integrationstore.New()
	integrationSvc := integrationservice.New(
		connectorStore, integrationservice.NewHTTPProber(time.Second),
		auditor, notificationSvc, nil, log,
	)

	itemStore := compliancestore.NewItemStore()
	complianceSvc := complianceservice.New(itemStore, compliancestore.NewWorkflowStore(), auditor, log)

	rStore := riskstore.New()
	riskSvc := riskservice.New(rStore, nil, auditor, notificationSvc, nil, log)

	circularStore := regulatorystore.New()
	regulatorySvc := regulatoryservice.New(circularStore, complianceSvc, auditor, notificationSvc, log)

	documentSvc := documentservice.New(
		documentstore.NewMetadataStore(), documentstore.NewBlobStore(),
		auditor, config.Documents{MaxUploadBytes: 1 << 20}, log,
	)

	reportingSvc := reportingservice.New(itemStore, circularStore, connectorStore, rStore, auditStore, log)

	router := NewRouter(Handlers{
		Auth:          authhandler.New(authSvc, log),
		Integrations:  integrationhandler.New(integrationSvc, log),
		Compliance:    compliancehandler.New(complianceSvc, log),
		Risk:          riskhandler.New(riskSvc, log),
		Regulatory:    regulatoryhandler.New(regulatorySvc, log),
		Documents:     documenthandler.New(documentSvc, log),
		Notifications: notificationhandler.New(notificationSvc, log),
		Reporting:     reportinghandler.New(reportingSvc, log),
	}, Options{
		Logger:         log,
		TokenValidator: jwt.NewMiddlewareAdapter(tokens),
		Sessions:       revocations,
		RateLimiter:    limitMiddleware,
		RequestTimeout: 10 * time.Second,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email string, role authmodels.Role) string {
	t.Helper()
	resp := testutil.PostJSON(t, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":     email,
		"full_name": "Router Test User",
		"password":  "router-test-pass-1",
		"role":      string(role),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.PostJSON(t, srv.URL+"/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "router-test-pass-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := testutil.DecodeData[struct {
		Tokens authmodels.TokenPair `json:"tokens"`
	}](t, resp)
	require.NotEmpty(t, body.Tokens.AccessToken)
	return body.Tokens.AccessToken
}

func TestRouterHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/v1/integrations",
		"/api/v1/compliance/items",
		"/api/v1/risk/assessments",
		"/api/v1/regulatory/circulars",
		"/api/v1/documents",
		"/api/v1/notifications",
		"/api/v1/reports/dashboard",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestRouterEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	officer := registerAndLogin(t, srv, "officer@example.com", authmodels.RoleComplianceOfficer)

	// A circular created and acknowledged should open a compliance item and
	// surface on the dashboard.
	resp := testutil.PostAuthed(t, srv.URL+"/api/v1/regulatory/circulars", officer, map[string]any{
		"reference":    "RBI/2025-26/99",
		"title":        "Router test circular",
		"regulator":    "RBI",
		"published_at": "2025-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	circular := testutil.DecodeData[regulatorymodels.Circular](t, resp)

	resp = testutil.PostAuthed(t, srv.URL+"/api/v1/regulatory/circulars/"+circular.ID+"/acknowledge", officer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.GetAuthed(t, srv.URL+"/api/v1/compliance/items", officer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := testutil.DecodeData[[]compliancemodels.Item](t, resp)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Title, "RBI/2025-26/99")
	assert.Equal(t, circular.ID, items[0].CircularID)

	resp = testutil.GetAuthed(t, srv.URL+"/api/v1/reports/dashboard", officer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := testutil.DecodeData[reportingservice.Dashboard](t, resp)
	assert.Equal(t, 1, dashboard.Items.ByStatus[compliancemodels.ItemStatusOpen])
	assert.Equal(t, 1, dashboard.Circulars[regulatorymodels.StatusUnderReview])

	resp = testutil.GetAuthed(t, srv.URL+"/api/v1/notifications", officer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRouterAdminConnectorLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := registerAndLogin(t, srv, "admin@example.com", authmodels.RoleAdmin)

	resp := testutil.PostAuthed(t, srv.URL+"/api/v1/integrations", admin, map[string]any{
		"name":     "core-banking",
		"kind":     "core_banking",
		"base_url": "https://cbs.example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := testutil.DecodeData[struct {
		Connector struct {
			ID string `json:"id"`
		} `json:"connector"`
		Secret string `json:"secret"`
	}](t, resp)
	require.NotEmpty(t, created.Secret)

	resp = testutil.PatchAuthed(t, srv.URL+"/api/v1/integrations/"+created.Connector.ID, admin, map[string]any{
		"description": "primary CBS link",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.DeleteAuthed(t, srv.URL+"/api/v1/integrations/"+created.Connector.ID, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.GetAuthed(t, srv.URL+"/api/v1/integrations/"+created.Connector.ID, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRouterContentTypeGate(t *testing.T) {
	srv := newTestServer(t)
	officer := registerAndLogin(t, srv, "gate@example.com", authmodels.RoleComplianceOfficer)

	t.Run("rejects non-JSON bodies on API routes", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/regulatory/circulars",
			strings.NewReader("reference=RBI/2025-26/1"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+officer)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("multipart document upload stays allowed", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="note.txt"`)
		hdr.Set("Content-Type", "text/plain")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("minutes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/documents", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+officer)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}

func TestRouterRoleEnforcement(t *testing.T) {
	srv := newTestServer(t)
	viewer := registerAndLogin(t, srv, "viewer@example.com", authmodels.RoleViewer)

	// Viewers can read but not mutate.
	resp := testutil.GetAuthed(t, srv.URL+"/api/v1/regulatory/circulars", viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.PostAuthed(t, srv.URL+"/api/v1/regulatory/circulars", viewer, map[string]any{
		"reference": "RBI/2025-26/100",
		"title":     "Should be forbidden",
		"regulator": "RBI",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.PostAuthed(t, srv.URL+"/api/v1/integrations", viewer, map[string]any{
		"name":     "not-allowed",
		"kind":     "core_banking",
		"base_url": "https://example.com",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
