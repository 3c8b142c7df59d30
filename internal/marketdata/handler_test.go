package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lv-tradecore/internal/instruments"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  [][]string
	quotes map[string]Quote
	err    error
}

func (f *fakeFetcher) FetchQuotes(_ context.Context, symbols []string) (map[string]Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbols)
	out := make(map[string]Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, f.err
}

func newTestRouter(t *testing.T, cache *PriceCache, batch BatchCache, fetcher QuoteFetcher) http.Handler {
	t.Helper()
	h := NewHandler(instruments.Default(), cache, batch, fetcher, nil, zaptest.NewLogger(t))
	r := chi.NewRouter()
	r.Get("/v1/prices/instruments", h.Instruments)
	r.Post("/v1/prices/batch", h.Batch)
	r.Get("/v1/prices/{symbol}", h.Price)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestHandlerPrice(t *testing.T) {
	cache := NewPriceCache()
	cache.Set("EURUSD", Quote{Bid: 1.095, Ask: 1.0952, Last: 1.0951})
	r := newTestRouter(t, cache, nil, nil)

	rec, body := doJSON(t, r, http.MethodGet, "/v1/prices/eurusd", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	price := body["price"].(map[string]any)
	assert.Equal(t, 1.095, price["bid"])

	rec, body = doJSON(t, r, http.MethodGet, "/v1/prices/GBPUSD", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "price not available", body["error"])

	rec, body = doJSON(t, r, http.MethodGet, "/v1/prices/FOOBAR", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Symbol FOOBAR not supported", body["error"])
}

func TestHandlerInstruments(t *testing.T) {
	r := newTestRouter(t, NewPriceCache(), nil, nil)
	rec, body := doJSON(t, r, http.MethodGet, "/v1/prices/instruments", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	list := body["instruments"].([]any)
	assert.Len(t, list, instruments.Default().Len())
}

func TestHandlerBatchResolutionOrder(t *testing.T) {
	ctx := context.Background()
	cache := NewPriceCache()
	cache.Set("GBPUSD", Quote{Bid: 1.27, Ask: 1.2702})
	batch := NewMemoryBatchCache(time.Minute)
	require.NoError(t, batch.PutMany(ctx, map[string]Quote{"EURUSD": {Bid: 1.08, Ask: 1.0802}}))
	fetcher := &fakeFetcher{quotes: map[string]Quote{"USDJPY": {Bid: 150.1, Ask: 150.12}}}
	r := newTestRouter(t, cache, batch, fetcher)

	rec, body := doJSON(t, r, http.MethodPost, "/v1/prices/batch",
		`{"symbols":["EURUSD","gbpusd","USDJPY","XAUUSD","NOTREAL","EURUSD"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	prices := body["prices"].(map[string]any)
	assert.Len(t, prices, 3)
	assert.Equal(t, 1.08, prices["EURUSD"].(map[string]any)["bid"])
	assert.Equal(t, 1.27, prices["GBPUSD"].(map[string]any)["bid"])
	assert.Equal(t, 150.1, prices["USDJPY"].(map[string]any)["bid"])

	require.Len(t, fetcher.calls, 1)
	assert.ElementsMatch(t, []string{"USDJPY", "XAUUSD"}, fetcher.calls[0], "only mapped, uncached symbols reach the venue")

	cached, err := batch.GetMany(ctx, []string{"GBPUSD", "USDJPY"})
	require.NoError(t, err)
	assert.Len(t, cached, 2, "resolved prices are written back")
}

func TestHandlerBatchFetchFailureStillAnswers(t *testing.T) {
	cache := NewPriceCache()
	cache.Set("GBPUSD", Quote{Bid: 1.27, Ask: 1.2702})
	r := newTestRouter(t, cache, NewMemoryBatchCache(time.Second), &fakeFetcher{err: errors.New("boom")})

	rec, body := doJSON(t, r, http.MethodPost, "/v1/prices/batch", `{"symbols":["GBPUSD","EURUSD"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["prices"].(map[string]any), 1)
}

func TestHandlerBatchRequiresSymbols(t *testing.T) {
	r := newTestRouter(t, NewPriceCache(), nil, nil)
	rec, body := doJSON(t, r, http.MethodPost, "/v1/prices/batch", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "symbols array required", body["error"])
}
