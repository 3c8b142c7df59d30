package risk

import (
	"context"
	"fmt"
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

var two = decimal.NewFromInt(2)

// TriggerPrice selects which quote price is compared with SL/TP levels.
type TriggerPrice string

const (
	// TriggerCloseSide compares longs against bid and shorts against ask.
	TriggerCloseSide TriggerPrice = "side"
	// TriggerMid compares both directions against the mid price.
	TriggerMid TriggerPrice = "mid"
)

func ParseTriggerPrice(v string) (TriggerPrice, error) {
	switch TriggerPrice(v) {
	case "", TriggerCloseSide:
		return TriggerCloseSide, nil
	case TriggerMid:
		return TriggerMid, nil
	default:
		return "", fmt.Errorf("unknown trigger price %q", v)
	}
}

type Trigger struct {
	PositionID string            `json:"position_id"`
	AccountID  string            `json:"account_id"`
	Symbol     string            `json:"symbol"`
	Reason     types.CloseReason `json:"reason"`
	Price      decimal.Decimal   `json:"price"`
	Profit     decimal.Decimal   `json:"profit"`
}

// SLTPSweep closes positions whose stop-loss or take-profit level has been
// crossed. The position is closed at the level itself.
type SLTPSweep struct {
	store   positions.Store
	cache   *marketdata.PriceCache
	catalog *instruments.Catalog
	mode    TriggerPrice
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSLTPSweep(store positions.Store, cache *marketdata.PriceCache, catalog *instruments.Catalog, mode TriggerPrice, logger *zap.Logger, m *metrics.Metrics) *SLTPSweep {
	if mode == "" {
		mode = TriggerCloseSide
	}
	return &SLTPSweep{
		store:   store,
		cache:   cache,
		catalog: catalog,
		mode:    mode,
		log:     logger.Named("sltp").With(zap.String("pool", string(store.Pool()))),
		metrics: m,
	}
}

func (s *SLTPSweep) observed(side types.PositionSide, q marketdata.Quote) decimal.Decimal {
	if s.mode == TriggerMid {
		return decimal.NewFromFloat(q.Bid).Add(decimal.NewFromFloat(q.Ask)).Div(two)
	}
	return closePrice(side, q)
}

// check returns the level that fired. Stop-loss wins when both fire.
func check(p model.Position, price decimal.Decimal) (types.CloseReason, decimal.Decimal, bool) {
	switch p.Side {
	case types.PositionSideBuy:
		if p.StopLoss != nil && p.StopLoss.IsPositive() && price.LessThanOrEqual(*p.StopLoss) {
			return types.CloseReasonStopLoss, *p.StopLoss, true
		}
		if p.TakeProfit != nil && p.TakeProfit.IsPositive() && price.GreaterThanOrEqual(*p.TakeProfit) {
			return types.CloseReasonTakeProfit, *p.TakeProfit, true
		}
	case types.PositionSideSell:
		if p.StopLoss != nil && p.StopLoss.IsPositive() && price.GreaterThanOrEqual(*p.StopLoss) {
			return types.CloseReasonStopLoss, *p.StopLoss, true
		}
		if p.TakeProfit != nil && p.TakeProfit.IsPositive() && price.LessThanOrEqual(*p.TakeProfit) {
			return types.CloseReasonTakeProfit, *p.TakeProfit, true
		}
	}
	return "", decimal.Zero, false
}

func (s *SLTPSweep) Run(ctx context.Context) ([]Trigger, error) {
	quotes := s.cache.Snapshot()
	if len(quotes) == 0 {
		return nil, nil
	}
	open, err := s.store.ListOpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	var fired []Trigger
	for _, p := range open {
		if ctx.Err() != nil {
			return fired, ctx.Err()
		}
		if p.StopLoss == nil && p.TakeProfit == nil {
			continue
		}
		q, ok := quotes[p.Symbol]
		if !ok {
			continue
		}
		in, ok := s.catalog.Get(p.Symbol)
		if !ok {
			continue
		}
		reason, level, ok := check(p, s.observed(p.Side, q))
		if !ok {
			continue
		}
		profit := pnlAt(p, level, in.ContractSize)
		applied, err := s.store.ClosePosition(ctx, positions.CloseCommand{
			PositionID: p.ID,
			ClosePrice: level,
			Reason:     reason,
			Profit:     profit,
			ClosedAt:   time.Now().UTC(),
		})
		if err != nil {
			s.log.Error("close failed", zap.String("position_id", p.ID), zap.Error(err))
			continue
		}
		if !applied {
			continue
		}
		s.metrics.PositionsClosed.WithLabelValues(string(s.store.Pool()), string(reason)).Inc()
		s.log.Info("position closed",
			zap.String("position_id", p.ID),
			zap.String("symbol", p.Symbol),
			zap.String("reason", string(reason)),
			zap.String("price", level.String()),
			zap.String("pnl", profit.String()),
		)
		fired = append(fired, Trigger{
			PositionID: p.ID,
			AccountID:  p.AccountID,
			Symbol:     p.Symbol,
			Reason:     reason,
			Price:      level,
			Profit:     profit,
		})
	}
	return fired, nil
}
