package positions

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresStorePoolTables(t *testing.T) {
	s, err := NewPostgresStore(nil, types.PoolChallenge)
	require.NoError(t, err)
	assert.Equal(t, "challenge_trades", s.t.trades)
	assert.Equal(t, "challenge_accounts", s.t.accounts)

	_, err = NewPostgresStore(nil, types.Pool("demo"))
	assert.Error(t, err)
}

const testSchema = `
create table trading_accounts (
	id text primary key,
	balance numeric not null,
	credit numeric,
	leverage int,
	stop_out_level numeric,
	updated_at timestamptz
);
create table trades (
	id text primary key,
	account_id text not null,
	symbol text not null,
	side text not null,
	volume numeric not null,
	open_price numeric not null,
	stop_loss numeric,
	take_profit numeric,
	swap numeric,
	status text not null,
	last_swap_on date,
	opened_at timestamptz not null,
	copy_leader_id text,
	close_price numeric,
	close_reason text,
	profit numeric,
	closed_at timestamptz
);
create table copy_follows (
	id text primary key,
	follower_account_id text not null,
	leader_id text not null,
	commission_percent numeric not null,
	status text not null
);
create table copy_commissions (
	follower_account_id text not null,
	leader_id text not null,
	period date not null,
	profit numeric not null,
	amount numeric not null,
	created_at timestamptz not null,
	unique (follower_account_id, leader_id, period)
);`

// newTestPostgres opens a throwaway schema on TEST_DB_DSN.
func newTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("positions_test_%d", time.Now().UnixNano())

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)
	_, err = admin.Exec(ctx, "create schema "+schema)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = admin.Exec(context.Background(), "drop schema "+schema+" cascade") })

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)
	return pool
}

func TestPostgresStoreConditionalWrites(t *testing.T) {
	db := newTestPostgres(t)
	ctx := context.Background()
	_, err := db.Exec(ctx, `insert into trading_accounts (id, balance, leverage) values ('acc', 1000, 100)`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `insert into trades (id, account_id, symbol, side, volume, open_price, swap, status, opened_at, copy_leader_id)
		values ('p1', 'acc', 'EURUSD', 'buy', 1, 1.09, 0, 'open', '2024-03-01T10:00:00Z', 'L1')`)
	require.NoError(t, err)

	s, err := NewPostgresStore(db, types.PoolTrading)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	open, err := s.ListOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, types.PositionSideBuy, open[0].Side)
	assert.Nil(t, open[0].StopLoss)

	tuesday := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)
	ok, err := s.AdjustSwap(ctx, SwapCommand{PositionID: "p1", Delta: decimal.RequireFromString("-4.5"), RolloverDate: tuesday})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.AdjustSwap(ctx, SwapCommand{PositionID: "p1", Delta: decimal.RequireFromString("-4.5"), RolloverDate: tuesday})
	require.NoError(t, err)
	assert.False(t, ok, "same rollover date applies once")
	ok, err = s.AdjustSwap(ctx, SwapCommand{PositionID: "p1", Delta: decimal.RequireFromString("-13.5"), RolloverDate: tuesday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.True(t, ok)

	closedAt := tuesday.Add(2 * time.Hour)
	cmd := CloseCommand{PositionID: "p1", ClosePrice: decimal.RequireFromString("1.1"), Reason: types.CloseReasonTakeProfit, Profit: decimal.RequireFromString("1000"), ClosedAt: closedAt}
	ok, err = s.ClosePosition(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ClosePosition(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, ok, "closing a closed position is a no-op")

	var balance decimal.Decimal
	require.NoError(t, db.QueryRow(ctx, "select balance from trading_accounts where id = 'acc'").Scan(&balance))
	assert.True(t, balance.Equal(decimal.RequireFromString("1982")), "got %s", balance)

	ok, err = s.AdjustSwap(ctx, SwapCommand{PositionID: "p1", Delta: decimal.RequireFromString("-4.5"), RolloverDate: tuesday.AddDate(0, 0, 2)})
	require.NoError(t, err)
	assert.False(t, ok, "closed positions accrue no swap")

	from := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	profit, err := s.FollowerProfit(ctx, "acc", "L1", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, profit.Equal(decimal.RequireFromString("982")), "got %s", profit)

	c := model.Commission{FollowerAccountID: "acc", LeaderID: "L1", Period: from, Profit: profit, Amount: decimal.RequireFromString("98.2")}
	ok, err = s.RecordCommission(ctx, c)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.RecordCommission(ctx, c)
	require.NoError(t, err)
	assert.False(t, ok)
}
