package risk

import (
	"context"
	"testing"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/positions"
	"lv-tradecore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	f.store.PutCopyRelation(model.CopyRelation{ID: "r1", FollowerAccountID: "f1", LeaderID: "L1", CommissionPercent: d("10")})
	f.store.PutCopyRelation(model.CopyRelation{ID: "r2", FollowerAccountID: "f2", LeaderID: "L1", CommissionPercent: d("10")})
	f.store.PutCopyRelation(model.CopyRelation{ID: "r3", FollowerAccountID: "f3", LeaderID: "L1", CommissionPercent: d("0")})

	win := f.position("w", "f1", "EURUSD", types.PositionSideBuy, "1", "1")
	win.CopyLeaderID = "L1"
	f.store.PutPosition(win)
	loss := f.position("l", "f2", "EURUSD", types.PositionSideBuy, "1", "1")
	loss.CopyLeaderID = "L1"
	f.store.PutPosition(loss)
	free := f.position("x", "f3", "EURUSD", types.PositionSideBuy, "1", "1")
	free.CopyLeaderID = "L1"
	f.store.PutPosition(free)

	closedAt := day.Add(-2 * time.Hour)
	for id, profit := range map[string]string{"w": "123.456", "l": "-40", "x": "500"} {
		_, err := f.store.ClosePosition(ctx, positions.CloseCommand{PositionID: id, Profit: d(profit), ClosedAt: closedAt})
		require.NoError(t, err)
	}

	sweep := NewCommissionSweep(f.store, f.log, f.metrics)
	recorded, err := sweep.Run(ctx, day)
	require.NoError(t, err)
	require.Len(t, recorded, 1, "only positive days with a commission rate are booked")
	c := recorded[0]
	assert.Equal(t, "f1", c.FollowerAccountID)
	assert.Equal(t, "L1", c.LeaderID)
	assert.True(t, c.Amount.Equal(d("12.35")), "got %s", c.Amount)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), c.Period)

	recorded, err = sweep.Run(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, recorded, "one record per follower, leader and day")
	assert.Len(t, f.store.Commissions(), 1)
}
