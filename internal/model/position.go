package model

import (
	"time"

	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
)

type Position struct {
	ID         string               `json:"id"`
	AccountID  string               `json:"trading_account_id"`
	Symbol     string               `json:"symbol"`
	Side       types.PositionSide   `json:"side"`
	Volume     decimal.Decimal      `json:"volume"`
	OpenPrice  decimal.Decimal      `json:"open_price"`
	StopLoss   *decimal.Decimal     `json:"stop_loss"`
	TakeProfit *decimal.Decimal     `json:"take_profit"`
	Swap       decimal.Decimal      `json:"swap"`
	Status     types.PositionStatus `json:"status"`
	LastSwapOn *time.Time           `json:"last_swap_on,omitempty"`
	OpenedAt   time.Time            `json:"opened_at"`

	// Set when the position mirrors a copy-trading leader.
	CopyLeaderID string `json:"copy_leader_id,omitempty"`

	ClosePrice  *decimal.Decimal  `json:"close_price,omitempty"`
	CloseReason types.CloseReason `json:"close_reason,omitempty"`
	Profit      decimal.Decimal   `json:"profit"`
	ClosedAt    *time.Time        `json:"closed_at,omitempty"`
}

func (p Position) IsOpen() bool {
	return p.Status == types.PositionStatusOpen
}

// Account carries the fields the risk engine needs; everything else about
// trading accounts lives outside this service.
type Account struct {
	ID           string          `json:"id"`
	Balance      decimal.Decimal `json:"balance"`
	Credit       decimal.Decimal `json:"credit"`
	Leverage     int             `json:"leverage"`
	StopOutLevel decimal.Decimal `json:"stop_out_level"`
}

type CopyRelation struct {
	ID                string          `json:"id"`
	FollowerAccountID string          `json:"follower_account_id"`
	LeaderID          string          `json:"leader_id"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}

type Commission struct {
	FollowerAccountID string          `json:"follower_account_id"`
	LeaderID          string          `json:"leader_id"`
	Period            time.Time       `json:"period"`
	Profit            decimal.Decimal `json:"profit"`
	Amount            decimal.Decimal `json:"amount"`
}
