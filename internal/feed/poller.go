package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/types"

	"go.uber.org/zap"
)

const pollLogEvery = 30 * time.Second

type PollerConfig struct {
	BaseURL  string
	APIKey   string
	Interval time.Duration
	Timeout  time.Duration
}

// Poller fetches the top of book for every mapped instrument on a fixed
// interval, whether or not the streaming channels are healthy.
type Poller struct {
	cfg     PollerConfig
	client  *http.Client
	catalog *instruments.Catalog
	writer  *QuoteWriter
	log     *zap.Logger
	metrics *metrics.Metrics

	lastLog time.Time
}

func NewPoller(cfg PollerConfig, catalog *instruments.Catalog, writer *QuoteWriter, logger *zap.Logger, m *metrics.Metrics) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Poller{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		catalog: catalog,
		writer:  writer,
		log:     logger.Named("poller"),
		metrics: m,
	}
}

// Run polls once immediately and then every interval until ctx ends.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("fallback poller started", zap.Duration("interval", p.cfg.Interval))
	p.Poll(ctx)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one cycle over both business lines and returns how many quotes
// were written.
func (p *Poller) Poll(ctx context.Context) int {
	written := 0
	for _, business := range []types.Business{types.BusinessCommon, types.BusinessCrypto} {
		codes := venueCodes(p.catalog.ByBusiness(business))
		if len(codes) == 0 {
			continue
		}
		items, err := p.fetch(ctx, business, codes)
		if err != nil {
			p.metrics.FeedPolls.WithLabelValues(string(business), "error").Inc()
			p.log.Warn("batch poll failed", zap.String("business", string(business)), zap.Error(err))
			continue
		}
		p.metrics.FeedPolls.WithLabelValues(string(business), "ok").Inc()
		for _, item := range items {
			if p.writer.Depth(item) {
				written++
			}
		}
	}
	if now := time.Now(); now.Sub(p.lastLog) >= pollLogEvery {
		p.lastLog = now
		p.log.Info("batch poll", zap.Int("written", written), zap.Int("cached", p.writer.cache.Len()))
	}
	return written
}

// FetchQuotes asks the venue for the given symbols without touching the live
// cache. Unmapped symbols are ignored.
func (p *Poller) FetchQuotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	byBusiness := make(map[types.Business][]string)
	for _, sym := range symbols {
		in, ok := p.catalog.Get(sym)
		if !ok {
			continue
		}
		byBusiness[in.Business] = append(byBusiness[in.Business], in.VenueCode)
	}
	out := make(map[string]marketdata.Quote, len(symbols))
	var errs []error
	now := time.Now().UnixMilli()
	for business, codes := range byBusiness {
		items, err := p.fetch(ctx, business, codes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, item := range items {
			sym, ok := p.catalog.Symbol(item.S)
			if !ok {
				continue
			}
			bid, ask := item.top()
			if bid <= 0 || ask <= 0 || ask < bid {
				continue
			}
			ts := now
			if item.T > 0 {
				ts = int64(item.T)
			}
			out[sym] = depthQuote(marketdata.Quote{}, false, bid, ask, ts)
		}
	}
	return out, errors.Join(errs...)
}

func (p *Poller) fetch(ctx context.Context, business types.Business, codes []string) ([]depthData, error) {
	url := fmt.Sprintf("%s/%s/batch_depth/%s", p.cfg.BaseURL, business, strings.Join(codes, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apiKey", p.cfg.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch depth %s: %w", business, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("batch depth %s: status %d", business, resp.StatusCode)
	}
	var body batchDepthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("batch depth %s: decode: %w", business, err)
	}
	if body.Ret != 200 {
		return nil, fmt.Errorf("batch depth %s: ret %d %s", business, body.Ret, body.Msg)
	}
	return body.Data, nil
}

func venueCodes(list []instruments.Instrument) []string {
	out := make([]string, 0, len(list))
	for _, in := range list {
		out = append(out, in.VenueCode)
	}
	return out
}
