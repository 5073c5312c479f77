package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otakulab/malcrawl/internal/api"
	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/metrics"
)

type staticSource struct {
	statuses []crawl.DriverStatus
}

func (s staticSource) Status() []crawl.DriverStatus { return s.statuses }

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := api.NewServer(staticSource{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusReportsDrivers(t *testing.T) {
	t.Parallel()

	source := staticSource{statuses: []crawl.DriverStatus{
		{Domain: "anime", CompletedCount: 120, Partition: "C", Page: 2},
		{Domain: "people", CompletedCount: 48, Partition: "A", Page: 7},
	}}
	srv := api.NewServer(source, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Crawls []crawl.DriverStatus `json:"crawls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, source.statuses, body.Crawls)
}

func TestStatusWithoutSource(t *testing.T) {
	t.Parallel()

	srv := api.NewServer(nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics.Init()
	srv := api.NewServer(staticSource{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
