package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunPublisher broadcasts a full snapshot every interval until ctx ends.
// Snapshots are skipped while nobody is listening.
func RunPublisher(ctx context.Context, hub *Hub, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	hub.log.Info("snapshot publisher started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hub.log.Info("snapshot publisher stopped")
			return
		case <-ticker.C:
			hub.metrics.CacheInstruments.Set(float64(hub.cache.Len()))
			if hub.Len() == 0 {
				continue
			}
			hub.PublishSnapshot()
		}
	}
}
