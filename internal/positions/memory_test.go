package positions

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seeded() *MemoryStore {
	s := NewMemoryStore(types.PoolTrading)
	s.PutAccount(model.Account{ID: "acc-1", Balance: d("1000"), Leverage: 100})
	s.PutAccount(model.Account{ID: "acc-2", Balance: d("500"), Leverage: 100})
	s.PutPosition(model.Position{ID: "p-1", AccountID: "acc-1", Symbol: "EURUSD", Side: types.PositionSideBuy, Volume: d("0.1"), OpenPrice: d("1.0940"), Swap: d("-1")})
	return s
}

func TestMemoryStoreListsOnlyHoldingAccounts(t *testing.T) {
	s := seeded()
	accounts, err := s.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)

	open, err := s.ListOpenPositions(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 1)
	assert.Equal(t, types.PoolTrading, s.Pool())
}

func TestMemoryStoreCloseIsConditional(t *testing.T) {
	ctx := context.Background()
	s := seeded()

	applied, err := s.ClosePosition(ctx, CloseCommand{PositionID: "p-1", ClosePrice: d("1.0951"), Reason: types.CloseReasonTakeProfit, Profit: d("11")})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.ClosePosition(ctx, CloseCommand{PositionID: "p-1", ClosePrice: d("1.0900"), Reason: types.CloseReasonUser})
	require.NoError(t, err)
	assert.False(t, applied, "second close is a no-op")

	p, err := s.Position("p-1")
	require.NoError(t, err)
	assert.Equal(t, types.PositionStatusClosed, p.Status)
	assert.Equal(t, types.CloseReasonTakeProfit, p.CloseReason)
	assert.True(t, p.ClosePrice.Equal(d("1.0951")))

	acc, _ := s.Account("acc-1")
	assert.True(t, acc.Balance.Equal(d("1010")), "profit plus swap credited once, got %s", acc.Balance)

	_, err = s.ClosePosition(ctx, CloseCommand{PositionID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConcurrentCloseAppliesOnce(t *testing.T) {
	s := seeded()
	var applied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ClosePosition(context.Background(), CloseCommand{PositionID: "p-1", ClosePrice: d("1.0951"), Reason: types.CloseReasonStopOut})
			if err == nil && ok {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), applied.Load())
}

func TestMemoryStoreSwapOncePerRollover(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	day := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)

	ok, err := s.AdjustSwap(ctx, SwapCommand{PositionID: "p-1", Delta: d("-0.45"), RolloverDate: day})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.AdjustSwap(ctx, SwapCommand{PositionID: "p-1", Delta: d("-0.45"), RolloverDate: day.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, ok, "same UTC date")
	ok, err = s.AdjustSwap(ctx, SwapCommand{PositionID: "p-1", Delta: d("-0.45"), RolloverDate: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.True(t, ok)

	p, _ := s.Position("p-1")
	assert.True(t, p.Swap.Equal(d("-1.9")), "got %s", p.Swap)
}

func TestMemoryStoreFollowerProfitAndCommission(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	s.PutPosition(model.Position{ID: "c-1", AccountID: "acc-2", CopyLeaderID: "leader-1", Side: types.PositionSideBuy, Volume: d("1"), OpenPrice: d("1"), Swap: d("-2")})
	s.PutPosition(model.Position{ID: "c-2", AccountID: "acc-2", CopyLeaderID: "leader-1", Side: types.PositionSideBuy, Volume: d("1"), OpenPrice: d("1")})
	s.PutPosition(model.Position{ID: "c-3", AccountID: "acc-2", CopyLeaderID: "leader-2", Side: types.PositionSideBuy, Volume: d("1"), OpenPrice: d("1")})

	_, _ = s.ClosePosition(ctx, CloseCommand{PositionID: "c-1", Profit: d("50"), ClosedAt: from.Add(time.Hour)})
	_, _ = s.ClosePosition(ctx, CloseCommand{PositionID: "c-2", Profit: d("30"), ClosedAt: to.Add(time.Hour)})
	_, _ = s.ClosePosition(ctx, CloseCommand{PositionID: "c-3", Profit: d("99"), ClosedAt: from.Add(time.Hour)})

	profit, err := s.FollowerProfit(ctx, "acc-2", "leader-1", from, to)
	require.NoError(t, err)
	assert.True(t, profit.Equal(d("48")), "got %s", profit)

	c := model.Commission{FollowerAccountID: "acc-2", LeaderID: "leader-1", Period: from, Profit: profit, Amount: d("4.8")}
	ok, err := s.RecordCommission(ctx, c)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.RecordCommission(ctx, c)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Commissions(), 1)
}
