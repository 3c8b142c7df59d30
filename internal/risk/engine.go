package risk

import (
	"context"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/positions"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	StopOutInterval time.Duration
	SLTPInterval    time.Duration
	StopOutLevel    decimal.Decimal
	TriggerPrice    TriggerPrice
	SwapAt          Clock
	CommissionAt    Clock
}

type poolSweeps struct {
	store   positions.Store
	stopOut *StopOutSweep
	sltp    *SLTPSweep
	swap    *SwapSweep
}

// Engine schedules every sweep for every position pool. Each pool gets its
// own jobs so a failing pool never holds up another.
type Engine struct {
	cfg        Config
	pools      []poolSweeps
	commission *CommissionSweep
	sched      *Scheduler
	log        *zap.Logger
}

// NewEngine wires sweeps for each store. copies may be nil when copy trading
// is not served.
func NewEngine(cfg Config, cache *marketdata.PriceCache, catalog *instruments.Catalog, stores []positions.Store, copies positions.CopyStore, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if cfg.StopOutInterval <= 0 {
		cfg.StopOutInterval = 5 * time.Second
	}
	if cfg.SLTPInterval <= 0 {
		cfg.SLTPInterval = time.Second
	}
	log := logger.Named("risk")
	e := &Engine{cfg: cfg, sched: NewScheduler(log, m), log: log}
	for _, st := range stores {
		e.pools = append(e.pools, poolSweeps{
			store:   st,
			stopOut: NewStopOutSweep(st, cache, catalog, cfg.StopOutLevel, log, m),
			sltp:    NewSLTPSweep(st, cache, catalog, cfg.TriggerPrice, log, m),
			swap:    NewSwapSweep(st, catalog, log, m),
		})
	}
	if copies != nil {
		e.commission = NewCommissionSweep(copies, log, m)
	}
	return e
}

// Run blocks until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range e.pools {
		p := p
		pool := string(p.store.Pool())
		g.Go(func() error {
			e.sched.Every(ctx, "stopout."+pool, e.cfg.StopOutInterval, func(ctx context.Context) error {
				results, err := p.stopOut.Run(ctx)
				if len(results) > 0 {
					e.log.Warn("accounts stopped out", zap.String("pool", pool), zap.Int("accounts", len(results)))
				}
				return err
			})
			return nil
		})
		g.Go(func() error {
			e.sched.Every(ctx, "sltp."+pool, e.cfg.SLTPInterval, func(ctx context.Context) error {
				_, err := p.sltp.Run(ctx)
				return err
			})
			return nil
		})
		g.Go(func() error {
			e.sched.Daily(ctx, "swap."+pool, e.cfg.SwapAt, func(ctx context.Context, at time.Time) error {
				_, err := p.swap.Run(ctx, at)
				return err
			})
			return nil
		})
	}
	if e.commission != nil {
		g.Go(func() error {
			e.sched.Daily(ctx, "commission", e.cfg.CommissionAt, func(ctx context.Context, at time.Time) error {
				_, err := e.commission.Run(ctx, at)
				return err
			})
			return nil
		})
	}
	e.log.Info("risk engine started", zap.Int("pools", len(e.pools)), zap.Bool("commission", e.commission != nil))
	err := g.Wait()
	e.log.Info("risk engine stopped")
	return err
}

func (e *Engine) Status() map[string]JobStatus {
	return e.sched.Status()
}
