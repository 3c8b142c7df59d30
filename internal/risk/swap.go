package risk

import (
	"context"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/positions"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var three = decimal.NewFromInt(3)

// SwapSweep charges or credits the overnight swap on positions held over the
// rollover.
type SwapSweep struct {
	store   positions.Store
	catalog *instruments.Catalog
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSwapSweep(store positions.Store, catalog *instruments.Catalog, logger *zap.Logger, m *metrics.Metrics) *SwapSweep {
	return &SwapSweep{
		store:   store,
		catalog: catalog,
		log:     logger.Named("swap").With(zap.String("pool", string(store.Pool()))),
		metrics: m,
	}
}

// swapDelta is the per-night amount for a position. Outside crypto there is
// no rollover on Saturday or Sunday and Wednesday carries the weekend, so a
// full week still charges seven nights.
func swapDelta(p model.Position, in instruments.Instrument, rollover time.Time) decimal.Decimal {
	rate := in.SwapLong
	if p.Side == types.PositionSideSell {
		rate = in.SwapShort
	}
	delta := rate.Mul(p.Volume)
	if in.Category == types.CategoryCrypto {
		return delta
	}
	switch rollover.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return decimal.Zero
	case time.Wednesday:
		return delta.Mul(three)
	}
	return delta
}

// Run applies the swap for the given rollover instant and returns how many
// positions were adjusted.
func (s *SwapSweep) Run(ctx context.Context, rollover time.Time) (int, error) {
	open, err := s.store.ListOpenPositions(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, p := range open {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		if p.OpenedAt.After(rollover) {
			continue
		}
		in, ok := s.catalog.Get(p.Symbol)
		if !ok {
			continue
		}
		delta := swapDelta(p, in, rollover)
		if delta.IsZero() {
			continue
		}
		ok, err := s.store.AdjustSwap(ctx, positions.SwapCommand{PositionID: p.ID, Delta: delta, RolloverDate: rollover})
		if err != nil {
			s.log.Error("swap adjust failed", zap.String("position_id", p.ID), zap.Error(err))
			continue
		}
		if ok {
			applied++
			s.metrics.SwapAdjustments.WithLabelValues(string(s.store.Pool())).Inc()
		}
	}
	s.log.Info("swap applied", zap.Int("positions", applied), zap.Time("rollover", rollover))
	return applied, nil
}
