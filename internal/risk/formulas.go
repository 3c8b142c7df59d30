package risk

import (
	"errors"
	"fmt"
	"sort"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
)

var (
	errMissingPrice      = errors.New("missing price")
	errUnknownInstrument = errors.New("unknown instrument")

	hundred         = decimal.NewFromInt(100)
	defaultLeverage = decimal.NewFromInt(100)
)

// closePrice is the side of the book a position exits on: bid for longs,
// ask for shorts.
func closePrice(side types.PositionSide, q marketdata.Quote) decimal.Decimal {
	if side == types.PositionSideSell {
		return decimal.NewFromFloat(q.Ask)
	}
	return decimal.NewFromFloat(q.Bid)
}

// pnlAt is the result of exiting at mark.
func pnlAt(p model.Position, mark, contractSize decimal.Decimal) decimal.Decimal {
	if !p.OpenPrice.IsPositive() || !mark.IsPositive() || !p.Volume.IsPositive() || !contractSize.IsPositive() {
		return decimal.Zero
	}
	units := p.Volume.Mul(contractSize)
	switch p.Side {
	case types.PositionSideBuy:
		return mark.Sub(p.OpenPrice).Mul(units)
	case types.PositionSideSell:
		return p.OpenPrice.Sub(mark).Mul(units)
	default:
		return decimal.Zero
	}
}

func positionMargin(p model.Position, contractSize, leverage decimal.Decimal) decimal.Decimal {
	if !leverage.IsPositive() {
		leverage = defaultLeverage
	}
	return p.OpenPrice.Mul(p.Volume).Mul(contractSize).Div(leverage)
}

func accountLeverage(a model.Account) decimal.Decimal {
	if a.Leverage > 0 {
		return decimal.NewFromInt(int64(a.Leverage))
	}
	return defaultLeverage
}

type positionRisk struct {
	Position   model.Position
	ClosePrice decimal.Decimal
	PnL        decimal.Decimal
	Margin     decimal.Decimal
}

// AccountMetrics is the derived margin state of one account.
type AccountMetrics struct {
	Balance     decimal.Decimal `json:"balance"`
	Equity      decimal.Decimal `json:"equity"`
	Margin      decimal.Decimal `json:"margin"`
	FreeMargin  decimal.Decimal `json:"free_margin"`
	MarginLevel decimal.Decimal `json:"margin_level"`
	PnL         decimal.Decimal `json:"pnl"`
}

// accountRisk is an account plus its open positions priced from one
// snapshot. It is recomputed locally as positions are closed.
type accountRisk struct {
	Account   model.Account
	Positions []positionRisk
}

// priceAccount prices every position of the account. Any position without a
// quote or catalog entry fails the whole account.
func priceAccount(acc model.Account, open []model.Position, quotes map[string]marketdata.Quote, catalog *instruments.Catalog) (accountRisk, error) {
	out := accountRisk{Account: acc, Positions: make([]positionRisk, 0, len(open))}
	leverage := accountLeverage(acc)
	for _, p := range open {
		in, ok := catalog.Get(p.Symbol)
		if !ok {
			return out, fmt.Errorf("%w: %s", errUnknownInstrument, p.Symbol)
		}
		q, ok := quotes[p.Symbol]
		if !ok {
			return out, fmt.Errorf("%w: %s", errMissingPrice, p.Symbol)
		}
		mark := closePrice(p.Side, q)
		out.Positions = append(out.Positions, positionRisk{
			Position:   p,
			ClosePrice: mark,
			PnL:        pnlAt(p, mark, in.ContractSize),
			Margin:     positionMargin(p, in.ContractSize, leverage),
		})
	}
	return out, nil
}

func (a accountRisk) metrics() AccountMetrics {
	var pnl, swap, margin decimal.Decimal
	for _, p := range a.Positions {
		pnl = pnl.Add(p.PnL)
		swap = swap.Add(p.Position.Swap)
		margin = margin.Add(p.Margin)
	}
	balance := a.Account.Balance
	equity := balance.Add(a.Account.Credit).Add(pnl).Add(swap)
	var level decimal.Decimal
	if margin.IsPositive() {
		level = equity.Div(margin).Mul(hundred)
	}
	return AccountMetrics{
		Balance:     balance,
		Equity:      equity,
		Margin:      margin,
		FreeMargin:  equity.Sub(margin),
		MarginLevel: level,
		PnL:         pnl,
	}
}

// realize drops position i from the account and moves its result into the
// balance.
func (a *accountRisk) realize(i int) {
	p := a.Positions[i]
	a.Account.Balance = a.Account.Balance.Add(p.PnL).Add(p.Position.Swap)
	a.Positions = append(a.Positions[:i], a.Positions[i+1:]...)
}

// liquidationOrder sorts largest loss first.
func liquidationOrder(ps []positionRisk) []positionRisk {
	out := make([]positionRisk, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PnL.LessThan(out[j].PnL)
	})
	return out
}
