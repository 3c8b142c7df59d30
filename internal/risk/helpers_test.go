package risk

import (
	"testing"
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/positions"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fixture struct {
	catalog *instruments.Catalog
	cache   *marketdata.PriceCache
	store   *positions.MemoryStore
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		catalog: instruments.Default(),
		cache:   marketdata.NewPriceCache(),
		store:   positions.NewMemoryStore(types.PoolTrading),
		metrics: metrics.New(),
		log:     zaptest.NewLogger(t),
	}
}

func (f *fixture) quote(symbol string, bid, ask float64) {
	f.cache.Set(symbol, marketdata.Quote{Bid: bid, Ask: ask})
}

func (f *fixture) position(id, account, symbol string, side types.PositionSide, volume, open string) model.Position {
	return model.Position{
		ID:        id,
		AccountID: account,
		Symbol:    symbol,
		Side:      side,
		Volume:    d(volume),
		OpenPrice: d(open),
		Status:    types.PositionStatusOpen,
		OpenedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}
