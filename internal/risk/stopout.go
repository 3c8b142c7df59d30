package risk

import (
	"context"
	"errors"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/positions"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var DefaultStopOutLevel = decimal.NewFromInt(20)

type StopOutResult struct {
	AccountID   string          `json:"account_id"`
	LevelBefore decimal.Decimal `json:"level_before"`
	LevelAfter  decimal.Decimal `json:"level_after"`
	Closed      []string        `json:"closed"`
}

// StopOutSweep liquidates accounts whose margin level is at or below their
// stop-out threshold.
type StopOutSweep struct {
	store   positions.Store
	cache   *marketdata.PriceCache
	catalog *instruments.Catalog
	level   decimal.Decimal
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewStopOutSweep uses level for accounts without their own threshold.
func NewStopOutSweep(store positions.Store, cache *marketdata.PriceCache, catalog *instruments.Catalog, level decimal.Decimal, logger *zap.Logger, m *metrics.Metrics) *StopOutSweep {
	if !level.IsPositive() {
		level = DefaultStopOutLevel
	}
	return &StopOutSweep{
		store:   store,
		cache:   cache,
		catalog: catalog,
		level:   level,
		log:     logger.Named("stopout").With(zap.String("pool", string(store.Pool()))),
		metrics: m,
	}
}

func (s *StopOutSweep) threshold(a model.Account) decimal.Decimal {
	if a.StopOutLevel.IsPositive() {
		return a.StopOutLevel
	}
	return s.level
}

// Run evaluates every account holding open positions against one price
// snapshot. A failing account is logged and skipped.
func (s *StopOutSweep) Run(ctx context.Context) ([]StopOutResult, error) {
	quotes := s.cache.Snapshot()
	if len(quotes) == 0 {
		return nil, nil
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.store.ListOpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string][]model.Position, len(accounts))
	for _, p := range open {
		byAccount[p.AccountID] = append(byAccount[p.AccountID], p)
	}

	var results []StopOutResult
	for _, acc := range accounts {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		held := byAccount[acc.ID]
		if len(held) == 0 {
			continue
		}
		ar, err := priceAccount(acc, held, quotes, s.catalog)
		if err != nil {
			if errors.Is(err, errMissingPrice) || errors.Is(err, errUnknownInstrument) {
				s.log.Debug("account skipped", zap.String("account_id", acc.ID), zap.Error(err))
			} else {
				s.log.Warn("account evaluation failed", zap.String("account_id", acc.ID), zap.Error(err))
			}
			continue
		}
		res, stopped := s.liquidate(ctx, ar)
		if stopped {
			results = append(results, res)
		}
	}
	return results, nil
}

// liquidate closes positions largest loss first until the level recovers
// above the threshold or nothing is left.
func (s *StopOutSweep) liquidate(ctx context.Context, ar accountRisk) (StopOutResult, bool) {
	threshold := s.threshold(ar.Account)
	m := ar.metrics()
	if !m.Margin.IsPositive() || m.MarginLevel.GreaterThan(threshold) {
		return StopOutResult{}, false
	}
	res := StopOutResult{AccountID: ar.Account.ID, LevelBefore: m.MarginLevel}
	log := s.log.With(zap.String("account_id", ar.Account.ID), zap.String("threshold", threshold.String()))
	log.Warn("stop-out triggered", zap.String("margin_level", m.MarginLevel.String()), zap.String("equity", m.Equity.String()))

	for _, target := range liquidationOrder(ar.Positions) {
		applied, err := s.store.ClosePosition(ctx, positions.CloseCommand{
			PositionID: target.Position.ID,
			ClosePrice: target.ClosePrice,
			Reason:     types.CloseReasonStopOut,
			Profit:     target.PnL,
			ClosedAt:   time.Now().UTC(),
		})
		if err != nil {
			log.Error("stop-out close failed", zap.String("position_id", target.Position.ID), zap.Error(err))
			break
		}
		if applied {
			res.Closed = append(res.Closed, target.Position.ID)
			s.metrics.PositionsClosed.WithLabelValues(string(s.store.Pool()), string(types.CloseReasonStopOut)).Inc()
			log.Info("position stopped out", zap.String("position_id", target.Position.ID), zap.String("pnl", target.PnL.String()))
		}
		for i := range ar.Positions {
			if ar.Positions[i].Position.ID == target.Position.ID {
				ar.realize(i)
				break
			}
		}
		m = ar.metrics()
		if !m.Margin.IsPositive() || m.MarginLevel.GreaterThan(threshold) {
			break
		}
	}
	res.LevelAfter = m.MarginLevel
	return res, true
}
