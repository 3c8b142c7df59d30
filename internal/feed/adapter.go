package feed

import (
	"context"
	"sync"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/types"

	"go.uber.org/zap"
)

type Config struct {
	WSURL               string
	HTTPURL             string
	APIKey              string
	ReconnectDelay      time.Duration
	HeartbeatInterval   time.Duration
	DepthSubscribeDelay time.Duration
	PollInterval        time.Duration
	HTTPTimeout         time.Duration
}

// Adapter owns one streaming channel per business line plus the fallback
// poller.
type Adapter struct {
	channels []*Channel
	poller   *Poller
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewAdapter(cfg Config, catalog *instruments.Catalog, writer *QuoteWriter, logger *zap.Logger, m *metrics.Metrics) *Adapter {
	a := &Adapter{log: logger.Named("feed")}
	for _, business := range []types.Business{types.BusinessCrypto, types.BusinessCommon} {
		a.channels = append(a.channels, NewChannel(ChannelConfig{
			Business:            business,
			URL:                 StreamURL(cfg.WSURL, business, cfg.APIKey),
			Codes:               venueCodes(catalog.ByBusiness(business)),
			ReconnectDelay:      cfg.ReconnectDelay,
			HeartbeatInterval:   cfg.HeartbeatInterval,
			DepthSubscribeDelay: cfg.DepthSubscribeDelay,
		}, writer, logger, m))
	}
	a.poller = NewPoller(PollerConfig{
		BaseURL:  cfg.HTTPURL,
		APIKey:   cfg.APIKey,
		Interval: cfg.PollInterval,
		Timeout:  cfg.HTTPTimeout,
	}, catalog, writer, logger, m)
	return a
}

func (a *Adapter) Poller() *Poller {
	return a.poller
}

// Start is idempotent.
func (a *Adapter) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	ctx, a.cancel = context.WithCancel(ctx)
	for _, ch := range a.channels {
		ch.Start(ctx)
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.poller.Run(ctx)
	}()
	a.log.Info("feed adapter started", zap.Int("channels", len(a.channels)))
}

func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel := a.cancel
	a.mu.Unlock()
	cancel()
	for _, ch := range a.channels {
		ch.Stop()
	}
	a.wg.Wait()
	a.log.Info("feed adapter stopped")
}

func (a *Adapter) Status() []ChannelStatus {
	out := make([]ChannelStatus, 0, len(a.channels))
	for _, ch := range a.channels {
		out = append(out, ch.Status())
	}
	return out
}
