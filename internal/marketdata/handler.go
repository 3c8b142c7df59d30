package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"lv-tradecore/internal/httputil"
	"lv-tradecore/internal/instruments"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuoteFetcher asks the venue directly for symbols the caches cannot serve.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

type Handler struct {
	catalog *instruments.Catalog
	cache   *PriceCache
	batch   BatchCache
	fetcher QuoteFetcher
	log     *zap.Logger

	Stream *StreamWS
}

func NewHandler(catalog *instruments.Catalog, cache *PriceCache, batch BatchCache, fetcher QuoteFetcher, stream *StreamWS, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, cache: cache, batch: batch, fetcher: fetcher, Stream: stream, log: logger.Named("prices")}
}

type instrumentsResponse struct {
	Success     bool                     `json:"success"`
	Instruments []instruments.Instrument `json:"instruments"`
}

type priceResponse struct {
	Success bool   `json:"success"`
	Symbol  string `json:"symbol"`
	Price   Quote  `json:"price"`
}

type batchRequest struct {
	Symbols []string `json:"symbols"`
}

type batchResponse struct {
	Success bool             `json:"success"`
	Prices  map[string]Quote `json:"prices"`
}

func (h *Handler) Instruments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, instrumentsResponse{Success: true, Instruments: h.catalog.All()})
}

func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if _, ok := h.catalog.VenueCode(symbol); !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: fmt.Sprintf("Symbol %s not supported", symbol)})
		return
	}
	q, ok := h.cache.Get(symbol)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: ErrNoPrice.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, priceResponse{Success: true, Symbol: symbol, Price: q})
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.Symbols == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbols array required"})
		return
	}
	prices := h.resolve(r.Context(), h.supported(req.Symbols))
	httputil.WriteJSON(w, http.StatusOK, batchResponse{Success: true, Prices: prices})
}

func (h *Handler) supported(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := h.catalog.VenueCode(s); ok {
			out = append(out, s)
		}
	}
	return out
}

// resolve walks the result cache, then the live cache, then the venue.
func (h *Handler) resolve(ctx context.Context, symbols []string) map[string]Quote {
	out := make(map[string]Quote, len(symbols))
	if len(symbols) == 0 {
		return out
	}
	if h.batch != nil {
		cached, err := h.batch.GetMany(ctx, symbols)
		if err != nil {
			h.log.Warn("batch cache read failed", zap.Error(err))
		}
		for sym, q := range cached {
			out[sym] = q
		}
	}

	fresh := make(map[string]Quote)
	var missing []string
	for _, sym := range symbols {
		if _, ok := out[sym]; ok {
			continue
		}
		if q, ok := h.cache.Get(sym); ok {
			fresh[sym] = q
			continue
		}
		missing = append(missing, sym)
	}

	if len(missing) > 0 && h.fetcher != nil {
		fetched, err := h.fetcher.FetchQuotes(ctx, missing)
		if err != nil {
			h.log.Warn("upstream batch fetch failed", zap.Int("symbols", len(missing)), zap.Error(err))
		}
		for sym, q := range fetched {
			fresh[sym] = q
		}
	}

	for sym, q := range fresh {
		out[sym] = q
	}
	if h.batch != nil && len(fresh) > 0 {
		if err := h.batch.PutMany(ctx, fresh); err != nil {
			h.log.Warn("batch cache write failed", zap.Error(err))
		}
	}
	return out
}
