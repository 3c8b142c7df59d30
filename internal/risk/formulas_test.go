package risk

import (
	"errors"
	"testing"

	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPnLAt(t *testing.T) {
	long := model.Position{Side: types.PositionSideBuy, Volume: d("0.5"), OpenPrice: d("1.1000")}
	short := model.Position{Side: types.PositionSideSell, Volume: d("0.5"), OpenPrice: d("1.1000")}
	size := d("100000")

	assert.True(t, pnlAt(long, d("1.1010"), size).Equal(d("50")))
	assert.True(t, pnlAt(short, d("1.1010"), size).Equal(d("-50")))
	assert.True(t, pnlAt(long, d("0"), size).IsZero())
}

func TestClosePriceUsesExitSide(t *testing.T) {
	q := marketdata.Quote{Bid: 1.0950, Ask: 1.0952}
	assert.True(t, closePrice(types.PositionSideBuy, q).Equal(d("1.095")))
	assert.True(t, closePrice(types.PositionSideSell, q).Equal(d("1.0952")))
}

func TestAccountMetrics(t *testing.T) {
	f := newFixture(t)
	f.quote("EURUSD", 1.0950, 1.0952)
	acc := model.Account{ID: "a", Balance: d("1000"), Credit: d("50"), Leverage: 100}
	p := f.position("p", "a", "EURUSD", types.PositionSideBuy, "1", "1.0940")
	p.Swap = d("-5")

	ar, err := priceAccount(acc, []model.Position{p}, f.cache.Snapshot(), f.catalog)
	require.NoError(t, err)
	m := ar.metrics()
	assert.True(t, m.PnL.Equal(d("100")), "pnl %s", m.PnL)
	assert.True(t, m.Equity.Equal(d("1145")), "equity %s", m.Equity)
	assert.True(t, m.Margin.Equal(d("1094")), "margin %s", m.Margin)
	assert.True(t, m.FreeMargin.Equal(d("51")))
	assert.True(t, m.MarginLevel.GreaterThan(d("104.6")))
}

func TestPriceAccountRequiresEveryPrice(t *testing.T) {
	f := newFixture(t)
	f.quote("EURUSD", 1.0950, 1.0952)
	acc := model.Account{ID: "a", Balance: d("1000")}
	open := []model.Position{
		f.position("p1", "a", "EURUSD", types.PositionSideBuy, "1", "1.0940"),
		f.position("p2", "a", "GBPUSD", types.PositionSideBuy, "1", "1.2700"),
	}
	_, err := priceAccount(acc, open, f.cache.Snapshot(), f.catalog)
	assert.True(t, errors.Is(err, errMissingPrice))

	open[1].Symbol = "NOTREAL"
	_, err = priceAccount(acc, open, f.cache.Snapshot(), f.catalog)
	assert.True(t, errors.Is(err, errUnknownInstrument))
}

func TestLiquidationOrderLargestLossFirst(t *testing.T) {
	ps := []positionRisk{
		{Position: model.Position{ID: "small"}, PnL: d("-10")},
		{Position: model.Position{ID: "win"}, PnL: d("25")},
		{Position: model.Position{ID: "big"}, PnL: d("-200")},
	}
	got := liquidationOrder(ps)
	assert.Equal(t, "big", got[0].Position.ID)
	assert.Equal(t, "small", got[1].Position.ID)
	assert.Equal(t, "win", got[2].Position.ID)
	assert.Equal(t, "small", ps[0].Position.ID, "input untouched")
}
