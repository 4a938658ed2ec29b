package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristack/internal/app"
	"agristack/internal/platform/config"
	"agristack/internal/platform/logger"
	records "agristack/internal/records/models"
	"agristack/pkg/domain"
	"agristack/pkg/testutil"
)

type server struct {
	app     *app.App
	handler http.Handler
}

func newServer(t *testing.T, exportLimit int) *server {
	t.Helper()
	cfg := config.Server{
		Blob:      config.BlobConfig{Dir: t.TempDir(), BaseURL: "/uploads"},
		Search:    config.SearchConfig{CacheTTL: time.Minute},
		Report:    config.ReportConfig{Timezone: "Asia/Kolkata", Brand: "Test"},
		Auth:      config.AuthConfig{JWTSigningKey: "secret", Issuer: "agristack", Audience: "console"},
		RateLimit: config.RateLimitConfig{ExportLimit: exportLimit, ExportWindow: time.Minute},
	}
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	a, err := app.New(context.Background(), cfg, log, reg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return &server{app: a, handler: newRouter(a, log, reg)}
}

func (s *server) do(t *testing.T, method, path string, p *domain.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if p != nil {
		token, err := s.app.Tokens.GenerateAccessToken(*p, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t, 0)

	rr := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `agristack_http_requests_total{method="GET",route="/healthz",status="2xx"} 1`)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newServer(t, 0)
	for _, path := range []string{"/search?q=ramesh", "/exports/farmers", "/dashboard/stats", "/audit/events"} {
		rr := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), path)
	}
}

func TestSearchAndExportThroughRouter(t *testing.T) {
	s := newServer(t, 0)
	_, err := s.app.Records.RegisterFarmer(context.Background(), testutil.Inspector, &records.RegisterFarmerRequest{
		FullName: "Ramesh Kumar",
		Mobile:   "9876543210",
		District: "Patna",
		Village:  "Barh",
	})
	require.NoError(t, err)

	viewer := testutil.Viewer
	rr := s.do(t, http.MethodGet, "/search?q=ramesh", &viewer)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Results, 1)

	rr = s.do(t, http.MethodGet, "/exports/farmers?format=csv", &viewer)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Record-Count"))

	rr = s.do(t, http.MethodGet, "/exports/inspections?format=pdf", &viewer)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "No data found for the selected range.", rr.Header().Get("X-Error-Description"))
}

func TestExportRateLimit(t *testing.T) {
	s := newServer(t, 1)
	viewer := testutil.Viewer

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodGet, "/exports/outreach", &viewer).Code)
	rr := s.do(t, http.MethodGet, "/exports/outreach", &viewer)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Search is not limited.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/search?q=ra", &viewer).Code)
}

func TestAuditEventsAdminOnly(t *testing.T) {
	s := newServer(t, 0)
	_, err := s.app.Records.RegisterFarmer(context.Background(), testutil.Inspector, &records.RegisterFarmerRequest{
		FullName: "Sunita Devi",
		Mobile:   "9123456780",
		District: "Gaya",
		Village:  "Bakraur",
	})
	require.NoError(t, err)
	s.app.Audit.Close()

	inspector := testutil.Inspector
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/audit/events", &inspector).Code)

	admin := testutil.Admin
	rr := s.do(t, http.MethodGet, "/audit/events?limit=5", &admin)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Events []struct {
			Action string `json:"action"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Events)
	assert.Equal(t, "farmer_registered", body.Events[0].Action)
}

func TestUploadsAreServed(t *testing.T) {
	s := newServer(t, 0)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	url, err := s.app.Blobs.Put(context.Background(), "field.png", bytes.NewReader(png))
	require.NoError(t, err)

	rr := s.do(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, png, rr.Body.Bytes())
}
