package positions

import (
	"context"
	"sort"
	"sync"
	"time"

	"lv-tradecore/internal/model"
	"lv-tradecore/internal/types"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps one pool in process memory. It backs tests and
// POSITION_STORE=memory deployments.
type MemoryStore struct {
	pool types.Pool

	mu          sync.Mutex
	accounts    map[string]model.Account
	positions   map[string]model.Position
	relations   []model.CopyRelation
	commissions map[string]model.Commission
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ CopyStore = (*MemoryStore)(nil)
)

func NewMemoryStore(pool types.Pool) *MemoryStore {
	return &MemoryStore{
		pool:        pool,
		accounts:    make(map[string]model.Account),
		positions:   make(map[string]model.Position),
		commissions: make(map[string]model.Commission),
	}
}

func (s *MemoryStore) Pool() types.Pool {
	return s.pool
}

func (s *MemoryStore) PutAccount(a model.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

func (s *MemoryStore) PutPosition(p model.Position) {
	if p.Status == "" {
		p.Status = types.PositionStatusOpen
	}
	s.mu.Lock()
	s.positions[p.ID] = p
	s.mu.Unlock()
}

func (s *MemoryStore) PutCopyRelation(r model.CopyRelation) {
	s.mu.Lock()
	s.relations = append(s.relations, r)
	s.mu.Unlock()
}

func (s *MemoryStore) Account(id string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *MemoryStore) Position(id string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return model.Position{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Commissions() []model.Commission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Commission, 0, len(s.commissions))
	for _, c := range s.commissions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowerAccountID < out[j].FollowerAccountID })
	return out
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holding := make(map[string]bool)
	for _, p := range s.positions {
		if p.IsOpen() {
			holding[p.AccountID] = true
		}
	}
	out := make([]model.Account, 0, len(holding))
	for id := range holding {
		if a, ok := s.accounts[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListOpenPositions(_ context.Context) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if p.IsOpen() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ClosePosition(_ context.Context, cmd CloseCommand) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[cmd.PositionID]
	if !ok {
		return false, ErrNotFound
	}
	if !p.IsOpen() {
		return false, nil
	}
	closedAt := cmd.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}
	price := cmd.ClosePrice
	p.Status = types.PositionStatusClosed
	p.ClosePrice = &price
	p.CloseReason = cmd.Reason
	p.Profit = cmd.Profit
	p.ClosedAt = &closedAt
	s.positions[p.ID] = p

	if a, ok := s.accounts[p.AccountID]; ok {
		a.Balance = a.Balance.Add(cmd.Profit).Add(p.Swap)
		s.accounts[a.ID] = a
	}
	return true, nil
}

func (s *MemoryStore) AdjustSwap(_ context.Context, cmd SwapCommand) (bool, error) {
	day := rolloverDay(cmd.RolloverDate)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[cmd.PositionID]
	if !ok {
		return false, ErrNotFound
	}
	if !p.IsOpen() {
		return false, nil
	}
	if p.LastSwapOn != nil && !p.LastSwapOn.Before(day) {
		return false, nil
	}
	p.Swap = p.Swap.Add(cmd.Delta)
	p.LastSwapOn = &day
	s.positions[p.ID] = p
	return true, nil
}

func (s *MemoryStore) ListCopyRelations(_ context.Context) ([]model.CopyRelation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CopyRelation, len(s.relations))
	copy(out, s.relations)
	return out, nil
}

func (s *MemoryStore) FollowerProfit(_ context.Context, followerAccountID, leaderID string, from, to time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, p := range s.positions {
		if p.AccountID != followerAccountID || p.CopyLeaderID != leaderID || p.IsOpen() || p.ClosedAt == nil {
			continue
		}
		if p.ClosedAt.Before(from) || !p.ClosedAt.Before(to) {
			continue
		}
		total = total.Add(p.Profit).Add(p.Swap)
	}
	return total, nil
}

func (s *MemoryStore) RecordCommission(_ context.Context, c model.Commission) (bool, error) {
	key := c.FollowerAccountID + "|" + c.LeaderID + "|" + rolloverDay(c.Period).Format(time.DateOnly)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.commissions[key]; exists {
		return false, nil
	}
	s.commissions[key] = c
	return true, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
