package positions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type tables struct {
	accounts string
	trades   string
}

var poolTables = map[types.Pool]tables{
	types.PoolTrading:   {accounts: "trading_accounts", trades: "trades"},
	types.PoolChallenge: {accounts: "challenge_accounts", trades: "challenge_trades"},
}

// PostgresStore serves one pool from its own account and trade tables.
// Copy-trading tables are shared.
type PostgresStore struct {
	db   *pgxpool.Pool
	pool types.Pool
	t    tables
}

var (
	_ Store     = (*PostgresStore)(nil)
	_ CopyStore = (*PostgresStore)(nil)
)

func NewPostgresStore(db *pgxpool.Pool, pool types.Pool) (*PostgresStore, error) {
	t, ok := poolTables[pool]
	if !ok {
		return nil, fmt.Errorf("unknown position pool %q", pool)
	}
	return &PostgresStore{db: db, pool: pool, t: t}, nil
}

func (s *PostgresStore) Pool() types.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	q := fmt.Sprintf("select a.id, a.balance, coalesce(a.credit, 0), coalesce(a.leverage, 0), coalesce(a.stop_out_level, 0) from %s a where exists (select 1 from %s t where t.account_id = a.id and t.status = 'open') order by a.id", s.t.accounts, s.t.trades)
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s accounts: %w", s.pool, err)
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Balance, &a.Credit, &a.Leverage, &a.StopOutLevel); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListOpenPositions(ctx context.Context) ([]model.Position, error) {
	q := fmt.Sprintf("select id, account_id, symbol, side, volume, open_price, stop_loss, take_profit, coalesce(swap, 0), status, last_swap_on, opened_at, coalesce(copy_leader_id::text, '') from %s where status = 'open' order by id", s.t.trades)
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s positions: %w", s.pool, err)
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		var p model.Position
		var side, status string
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Symbol, &side, &p.Volume, &p.OpenPrice, &p.StopLoss, &p.TakeProfit, &p.Swap, &status, &p.LastSwapOn, &p.OpenedAt, &p.CopyLeaderID); err != nil {
			return nil, err
		}
		p.Side = types.PositionSide(side)
		p.Status = types.PositionStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClosePosition flips the trade to closed only if it is still open and
// credits the realized result to the account in the same transaction.
func (s *PostgresStore) ClosePosition(ctx context.Context, cmd CloseCommand) (bool, error) {
	closedAt := cmd.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var accountID string
	var swap decimal.Decimal
	q := fmt.Sprintf("update %s set status = 'closed', close_price = $2, close_reason = $3, profit = $4, closed_at = $5 where id = $1 and status = 'open' returning account_id, coalesce(swap, 0)", s.t.trades)
	err = tx.QueryRow(ctx, q, cmd.PositionID, cmd.ClosePrice, string(cmd.Reason), cmd.Profit, closedAt).Scan(&accountID, &swap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("close %s position %s: %w", s.pool, cmd.PositionID, err)
	}
	q = fmt.Sprintf("update %s set balance = balance + $2, updated_at = $3 where id = $1", s.t.accounts)
	if _, err := tx.Exec(ctx, q, accountID, cmd.Profit.Add(swap), closedAt); err != nil {
		return false, fmt.Errorf("settle %s account %s: %w", s.pool, accountID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) AdjustSwap(ctx context.Context, cmd SwapCommand) (bool, error) {
	q := fmt.Sprintf("update %s set swap = coalesce(swap, 0) + $2, last_swap_on = $3 where id = $1 and status = 'open' and (last_swap_on is null or last_swap_on < $3)", s.t.trades)
	tag, err := s.db.Exec(ctx, q, cmd.PositionID, cmd.Delta, rolloverDay(cmd.RolloverDate))
	if err != nil {
		return false, fmt.Errorf("adjust swap %s position %s: %w", s.pool, cmd.PositionID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListCopyRelations(ctx context.Context) ([]model.CopyRelation, error) {
	rows, err := s.db.Query(ctx, "select id, follower_account_id, leader_id, commission_percent from copy_follows where status = 'active' order by id")
	if err != nil {
		return nil, fmt.Errorf("list copy relations: %w", err)
	}
	defer rows.Close()
	var out []model.CopyRelation
	for rows.Next() {
		var r model.CopyRelation
		if err := rows.Scan(&r.ID, &r.FollowerAccountID, &r.LeaderID, &r.CommissionPercent); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FollowerProfit(ctx context.Context, followerAccountID, leaderID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := fmt.Sprintf("select coalesce(sum(t.profit + coalesce(t.swap, 0)), 0) from %s t where t.account_id = $1 and t.copy_leader_id::text = $2 and t.status = 'closed' and t.closed_at >= $3 and t.closed_at < $4", s.t.trades)
	if err := s.db.QueryRow(ctx, q, followerAccountID, leaderID, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("follower profit: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) RecordCommission(ctx context.Context, c model.Commission) (bool, error) {
	tag, err := s.db.Exec(ctx, "insert into copy_commissions (follower_account_id, leader_id, period, profit, amount, created_at) values ($1,$2,$3,$4,$5,$6) on conflict (follower_account_id, leader_id, period) do nothing", c.FollowerAccountID, c.LeaderID, rolloverDay(c.Period), c.Profit, c.Amount, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("record commission: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
