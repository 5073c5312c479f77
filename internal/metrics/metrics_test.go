package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	// Observations after Init must not panic.
	ObservePageFetch("anime", "200")
	ObserveItemCompleted("anime")
	ObserveItemError("people")
	ObserveRetry("anime", "transient")
	ObserveRateLimitDelay("anime", 250*time.Millisecond)
	ObserveCheckpointSave("anime", nil)
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObservePageFetch("anime", "200")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "malcrawl_pages_fetched_total")
}
