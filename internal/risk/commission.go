package risk

import (
	"context"
	"time"

	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/positions"

	"go.uber.org/zap"
)

// CommissionSweep books the daily copy-trading commission each follower owes
// its leader.
type CommissionSweep struct {
	store   positions.CopyStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewCommissionSweep(store positions.CopyStore, logger *zap.Logger, m *metrics.Metrics) *CommissionSweep {
	return &CommissionSweep{store: store, log: logger.Named("commission"), metrics: m}
}

// Run records commissions for the UTC day containing at. Days with no
// positive result produce nothing.
func (s *CommissionSweep) Run(ctx context.Context, at time.Time) ([]model.Commission, error) {
	at = at.UTC()
	from := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	relations, err := s.store.ListCopyRelations(ctx)
	if err != nil {
		return nil, err
	}
	var recorded []model.Commission
	for _, r := range relations {
		if ctx.Err() != nil {
			return recorded, ctx.Err()
		}
		if !r.CommissionPercent.IsPositive() {
			continue
		}
		profit, err := s.store.FollowerProfit(ctx, r.FollowerAccountID, r.LeaderID, from, to)
		if err != nil {
			s.log.Error("follower profit failed", zap.String("follower_account_id", r.FollowerAccountID), zap.Error(err))
			continue
		}
		if !profit.IsPositive() {
			continue
		}
		c := model.Commission{
			FollowerAccountID: r.FollowerAccountID,
			LeaderID:          r.LeaderID,
			Period:            from,
			Profit:            profit,
			Amount:            profit.Mul(r.CommissionPercent).Div(hundred).Round(2),
		}
		ok, err := s.store.RecordCommission(ctx, c)
		if err != nil {
			s.log.Error("record commission failed", zap.String("follower_account_id", r.FollowerAccountID), zap.Error(err))
			continue
		}
		if ok {
			recorded = append(recorded, c)
			s.metrics.CommissionRecords.Inc()
		}
	}
	s.log.Info("commissions recorded", zap.Int("records", len(recorded)), zap.Time("period", from))
	return recorded, nil
}
