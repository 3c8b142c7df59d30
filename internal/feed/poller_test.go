package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"lv-tradecore/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type venueHTTP struct {
	mu    sync.Mutex
	paths []string
	keys  []string
}

func newVenueHTTP(t *testing.T, v *venueHTTP) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		v.paths = append(v.paths, r.URL.Path)
		v.keys = append(v.keys, r.Header.Get("apiKey"))
		v.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/common/batch_depth/"):
			_, _ = w.Write([]byte(`{"ret":200,"msg":"ok","data":[
				{"s":"EURUSD","b":[["1.0950","1"]],"a":[["1.0952","1"]]},
				{"s":"XAUUSD","b":[["2300.1","1"]],"a":[]},
				{"s":"GBPUSD","b":[["1.27","1"]],"a":[["1.2702","1"]]}
			]}`))
		case strings.HasPrefix(r.URL.Path, "/crypto/batch_depth/"):
			_, _ = w.Write([]byte(`{"ret":401,"msg":"bad key"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPollerWritesTwoSidedQuotes(t *testing.T) {
	v := &venueHTTP{}
	srv := newVenueHTTP(t, v)
	w, cache, _ := newTestWriter(t)
	p := NewPoller(PollerConfig{BaseURL: srv.URL + "/", APIKey: "k1"}, testCatalog(), w, zaptest.NewLogger(t), metrics.New())

	written := p.Poll(context.Background())
	assert.Equal(t, 1, written, "one-sided and unmapped items are skipped")
	q, ok := cache.Get("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.095, q.Bid)
	_, ok = cache.Get("XAUUSD")
	assert.False(t, ok)

	v.mu.Lock()
	defer v.mu.Unlock()
	assert.ElementsMatch(t, []string{"/common/batch_depth/EURUSD,XAUUSD", "/crypto/batch_depth/BTCUSDT"}, v.paths)
	for _, k := range v.keys {
		assert.Equal(t, "k1", k)
	}
}

func TestPollerFetchQuotesLeavesCacheAlone(t *testing.T) {
	srv := newVenueHTTP(t, &venueHTTP{})
	w, cache, _ := newTestWriter(t)
	p := NewPoller(PollerConfig{BaseURL: srv.URL, APIKey: "k1"}, testCatalog(), w, zaptest.NewLogger(t), metrics.New())

	got, err := p.FetchQuotes(context.Background(), []string{"EURUSD", "NOPE"})
	require.NoError(t, err)
	require.Contains(t, got, "EURUSD")
	assert.InDelta(t, 1.0951, got["EURUSD"].Last, 1e-9)
	assert.Equal(t, 0, cache.Len())

	got, err = p.FetchQuotes(context.Background(), []string{"BTCUSD"})
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestPollerSurvivesDeadVenue(t *testing.T) {
	w, cache, _ := newTestWriter(t)
	p := NewPoller(PollerConfig{BaseURL: "http://127.0.0.1:1"}, testCatalog(), w, zaptest.NewLogger(t), metrics.New())
	assert.Equal(t, 0, p.Poll(context.Background()))
	assert.Equal(t, 0, cache.Len())
}
