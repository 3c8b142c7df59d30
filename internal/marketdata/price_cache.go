package marketdata

import (
	"errors"
	"sync"
	"time"
)

var ErrNoPrice = errors.New("price not available")

// Quote is the latest observed price of one instrument. Time is the upstream
// timestamp in unix milliseconds.
type Quote struct {
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Last       float64   `json:"last,omitempty"`
	Volume     float64   `json:"volume,omitempty"`
	Time       int64     `json:"time"`
	ReceivedAt time.Time `json:"-"`
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// HalfSpread returns half the bid/ask distance, or 0 when one side is unknown.
func (q Quote) HalfSpread() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return (q.Ask - q.Bid) / 2
}

func (q Quote) valid() bool {
	return q.Bid > 0 && q.Ask > 0 && q.Ask >= q.Bid
}

// PriceCache maps symbols to their latest Quote. Writers from every feed
// channel share it; readers get copies.
type PriceCache struct {
	mu         sync.RWMutex
	quotes     map[string]Quote
	lastUpdate time.Time
	now        func() time.Time
}

func NewPriceCache() *PriceCache {
	return &PriceCache{quotes: make(map[string]Quote), now: time.Now}
}

// Set overwrites the quote for symbol. Quotes with a non-positive side or a
// crossed book are rejected and false is returned.
func (c *PriceCache) Set(symbol string, q Quote) bool {
	if symbol == "" || !q.valid() {
		return false
	}
	now := c.now()
	if q.ReceivedAt.IsZero() {
		q.ReceivedAt = now
	}
	if q.Time == 0 {
		q.Time = now.UnixMilli()
	}
	c.mu.Lock()
	c.quotes[symbol] = q
	c.lastUpdate = now
	c.mu.Unlock()
	return true
}

func (c *PriceCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	q, ok := c.quotes[symbol]
	c.mu.RUnlock()
	return q, ok
}

// Snapshot returns a point-in-time copy the caller owns.
func (c *PriceCache) Snapshot() map[string]Quote {
	c.mu.RLock()
	out := make(map[string]Quote, len(c.quotes))
	for k, v := range c.quotes {
		out[k] = v
	}
	c.mu.RUnlock()
	return out
}

func (c *PriceCache) Len() int {
	c.mu.RLock()
	n := len(c.quotes)
	c.mu.RUnlock()
	return n
}

// LastUpdate reports when any quote was last written. Zero means never.
func (c *PriceCache) LastUpdate() time.Time {
	c.mu.RLock()
	t := c.lastUpdate
	c.mu.RUnlock()
	return t
}

// Stale lists symbols whose quote was received longer than maxAge ago.
func (c *PriceCache) Stale(maxAge time.Duration) []string {
	cutoff := c.now().Add(-maxAge)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for sym, q := range c.quotes {
		if q.ReceivedAt.Before(cutoff) {
			out = append(out, sym)
		}
	}
	return out
}
