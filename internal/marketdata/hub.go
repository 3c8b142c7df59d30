package marketdata

import (
	"sync"
	"time"

	"lv-tradecore/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventPriceUpdate = "priceUpdate"
	EventPriceStream = "priceStream"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type PriceUpdate struct {
	Symbol string `json:"symbol"`
	Price  Quote  `json:"price"`
}

// PriceStream carries the full cache. Updated holds the quotes ticked since
// the previous stream event.
type PriceStream struct {
	Prices    map[string]Quote `json:"prices"`
	Updated   map[string]Quote `json:"updated"`
	Timestamp int64            `json:"timestamp"`
}

// Subscription is one consumer's bounded outbound queue. When the queue is
// full the oldest event is evicted to make room.
type Subscription struct {
	ID string

	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped uint64
}

func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// push reports how many events were evicted.
func (s *Subscription) push(evt Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	evicted := 0
	for {
		select {
		case s.ch <- evt:
			s.dropped += uint64(evicted)
			return evicted
		default:
		}
		select {
		case <-s.ch:
			evicted++
		default:
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

type Hub struct {
	cache     *PriceCache
	queueSize int
	log       *zap.Logger
	metrics   *metrics.Metrics

	mu   sync.RWMutex
	subs map[string]*Subscription

	pendingMu sync.Mutex
	pending   map[string]Quote
}

func NewHub(cache *PriceCache, queueSize int, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		cache:     cache,
		queueSize: queueSize,
		log:       logger.Named("hub"),
		metrics:   m,
		subs:      make(map[string]*Subscription),
		pending:   make(map[string]Quote),
	}
}

// Subscribe registers a consumer and queues one full snapshot for it before
// any other event.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{ID: uuid.NewString(), ch: make(chan Event, h.queueSize)}
	sub.push(Event{Type: EventPriceStream, Data: PriceStream{
		Prices:    h.cache.Snapshot(),
		Updated:   map[string]Quote{},
		Timestamp: time.Now().UnixMilli(),
	}})
	h.mu.Lock()
	h.subs[sub.ID] = sub
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.HubSubscribers.Set(float64(n))
	h.log.Debug("subscriber added", zap.String("id", sub.ID), zap.Int("subscribers", n))
	return sub
}

// Unsubscribe removes and closes sub. Repeated calls are no-ops.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[sub.ID]
	delete(h.subs, sub.ID)
	n := len(h.subs)
	h.mu.Unlock()
	sub.close()
	if ok {
		h.metrics.HubSubscribers.Set(float64(n))
		h.log.Debug("subscriber removed", zap.String("id", sub.ID), zap.Uint64("dropped", sub.Dropped()))
	}
}

func (h *Hub) PublishTick(symbol string, q Quote) {
	h.pendingMu.Lock()
	h.pending[symbol] = q
	h.pendingMu.Unlock()
	h.broadcast(Event{Type: EventPriceUpdate, Data: PriceUpdate{Symbol: symbol, Price: q}})
}

// PublishSnapshot broadcasts the whole cache along with the ticks seen since
// the previous call.
func (h *Hub) PublishSnapshot() {
	h.pendingMu.Lock()
	updated := h.pending
	h.pending = make(map[string]Quote)
	h.pendingMu.Unlock()
	h.broadcast(Event{Type: EventPriceStream, Data: PriceStream{
		Prices:    h.cache.Snapshot(),
		Updated:   updated,
		Timestamp: time.Now().UnixMilli(),
	}})
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) broadcast(evt Event) {
	h.mu.RLock()
	evicted := 0
	for _, sub := range h.subs {
		evicted += sub.push(evt)
	}
	h.mu.RUnlock()
	if evicted > 0 {
		h.metrics.HubDropped.Add(float64(evicted))
	}
}
