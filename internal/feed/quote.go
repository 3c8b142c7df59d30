package feed

import (
	"time"

	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/marketdata"
)

const DefaultSpreadRatio = 0.0001

// tradeQuote derives a two-sided quote from a trade print. The previous half
// spread is kept when known, otherwise ratio*price is used on each side.
func tradeQuote(prev marketdata.Quote, hasPrev bool, price, volume float64, ts int64, ratio float64) marketdata.Quote {
	half := price * ratio
	if hasPrev && prev.HalfSpread() > 0 {
		half = prev.HalfSpread()
	}
	return marketdata.Quote{
		Bid:    price - half,
		Ask:    price + half,
		Last:   price,
		Volume: volume,
		Time:   ts,
	}
}

// depthQuote takes the top of book as is and carries the previous last
// trade price, falling back to mid.
func depthQuote(prev marketdata.Quote, hasPrev bool, bid, ask float64, ts int64) marketdata.Quote {
	q := marketdata.Quote{Bid: bid, Ask: ask, Time: ts}
	if hasPrev && prev.Last > 0 {
		q.Last = prev.Last
		q.Volume = prev.Volume
	} else {
		q.Last = q.Mid()
	}
	return q
}

// QuoteWriter translates venue codes and writes normalized quotes into the
// cache, notifying the hub for every accepted write.
type QuoteWriter struct {
	catalog     *instruments.Catalog
	cache       *marketdata.PriceCache
	hub         *marketdata.Hub
	spreadRatio float64
	now         func() time.Time
}

func NewQuoteWriter(catalog *instruments.Catalog, cache *marketdata.PriceCache, hub *marketdata.Hub, spreadRatio float64) *QuoteWriter {
	if spreadRatio <= 0 {
		spreadRatio = DefaultSpreadRatio
	}
	return &QuoteWriter{catalog: catalog, cache: cache, hub: hub, spreadRatio: spreadRatio, now: time.Now}
}

func (w *QuoteWriter) timestamp(t flexFloat) int64 {
	if t > 0 {
		return int64(t)
	}
	return w.now().UnixMilli()
}

// Trade applies a trade print. It reports whether the cache was updated.
func (w *QuoteWriter) Trade(d tradeData) bool {
	symbol, ok := w.catalog.Symbol(d.S)
	if !ok || d.P <= 0 {
		return false
	}
	prev, hasPrev := w.cache.Get(symbol)
	q := tradeQuote(prev, hasPrev, float64(d.P), float64(d.V), w.timestamp(d.T), w.spreadRatio)
	return w.store(symbol, q)
}

// Depth applies a book update. Both sides must be present.
func (w *QuoteWriter) Depth(d depthData) bool {
	symbol, ok := w.catalog.Symbol(d.S)
	if !ok {
		return false
	}
	bid, ask := d.top()
	if bid <= 0 || ask <= 0 {
		return false
	}
	prev, hasPrev := w.cache.Get(symbol)
	return w.store(symbol, depthQuote(prev, hasPrev, bid, ask, w.timestamp(d.T)))
}

func (w *QuoteWriter) store(symbol string, q marketdata.Quote) bool {
	if !w.cache.Set(symbol, q) {
		return false
	}
	if w.hub != nil {
		w.hub.PublishTick(symbol, q)
	}
	return true
}
