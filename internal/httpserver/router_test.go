package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lv-tradecore/internal/health"
	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)
	m := metrics.New()
	cache := marketdata.NewPriceCache()
	cache.Set("EURUSD", marketdata.Quote{Bid: 1.1, Ask: 1.1002, Last: 1.1001})
	hub := marketdata.NewHub(cache, 8, log, m)
	stream := marketdata.NewStreamWS(hub, nil, "*", log)
	market := marketdata.NewHandler(instruments.Default(), cache, marketdata.NewMemoryBatchCache(time.Second), nil, stream, log)
	hh := health.NewHandler(health.Deps{Quotes: cache, Hub: hub}, time.Now(), ":0", "development", "secret")
	return NewRouter(RouterDeps{
		MarketHandler: market,
		HealthHandler: hh,
		Metrics:       m.Handler(),
		Limiter:       limiter,
		InternalToken: "secret",
		AllowedOrigin: "https://app.example.com",
	})
}

func get(h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := get(h, "/v1/prices/EURUSD", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bid":1.1`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, get(h, "/v1/prices/instruments", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "/health/ready", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/health/full", nil).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/prices/batch", strings.NewReader(`{"symbols":["EURUSD"]}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"EURUSD"`)
}

func TestMetricsRequireInternalToken(t *testing.T) {
	h := newTestServer(t, nil)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/metrics", map[string]string{"X-Internal-Token": "nope"}).Code)

	rec := get(h, "/metrics", map[string]string{"X-Internal-Token": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hub_subscribers")
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/prices/batch", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(h, "/v1/prices/EURUSD", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	frozen := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }
	h := newTestServer(t, rl)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(h, "/v1/prices/EURUSD", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/v1/prices/EURUSD", nil)
	other.RemoteAddr = "10.0.0.9:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, get(h, "/health/live", nil).Code, "health is not rate limited")

	rl.now = func() time.Time { return frozen.Add(10 * time.Minute) }
	rl.prune()
	assert.Empty(t, rl.visitors)
}
