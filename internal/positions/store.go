package positions

import (
	"context"
	"errors"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("position not found")

// CloseCommand closes one position. Profit is the realized PnL excluding
// swap; the store credits profit plus accumulated swap to the account.
type CloseCommand struct {
	PositionID string
	ClosePrice decimal.Decimal
	Reason     types.CloseReason
	Profit     decimal.Decimal
	ClosedAt   time.Time
}

type SwapCommand struct {
	PositionID string
	Delta      decimal.Decimal
	// RolloverDate is the UTC date the swap belongs to. A position is charged
	// at most once per date.
	RolloverDate time.Time
}

// Store is the durable home of accounts and positions for one pool. Every
// mutation is conditional: it reports applied=false, not an error, when the
// position is no longer open or the change was already made.
type Store interface {
	Pool() types.Pool
	// ListAccounts returns accounts holding at least one open position.
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListOpenPositions(ctx context.Context) ([]model.Position, error)
	ClosePosition(ctx context.Context, cmd CloseCommand) (bool, error)
	AdjustSwap(ctx context.Context, cmd SwapCommand) (bool, error)
	Ping(ctx context.Context) error
}

// CopyStore covers copy-trading relationships and their commissions.
type CopyStore interface {
	ListCopyRelations(ctx context.Context) ([]model.CopyRelation, error)
	// FollowerProfit sums realized profit plus swap on positions the follower
	// copied from leader and closed within [from, to).
	FollowerProfit(ctx context.Context, followerAccountID, leaderID string, from, to time.Time) (decimal.Decimal, error)
	RecordCommission(ctx context.Context, c model.Commission) (bool, error)
}

func rolloverDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
