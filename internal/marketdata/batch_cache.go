package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BatchCache holds recent batch lookup results for a short TTL so repeated
// REST calls do not hit the venue.
type BatchCache interface {
	GetMany(ctx context.Context, symbols []string) (map[string]Quote, error)
	PutMany(ctx context.Context, quotes map[string]Quote) error
}

type memoryEntry struct {
	quote   Quote
	expires time.Time
}

type MemoryBatchCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

var _ BatchCache = (*MemoryBatchCache)(nil)

func NewMemoryBatchCache(ttl time.Duration) *MemoryBatchCache {
	return &MemoryBatchCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryBatchCache) GetMany(_ context.Context, symbols []string) (map[string]Quote, error) {
	now := c.now()
	out := make(map[string]Quote, len(symbols))
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sym := range symbols {
		e, ok := c.entries[sym]
		if !ok {
			continue
		}
		if !now.Before(e.expires) {
			delete(c.entries, sym)
			continue
		}
		out[sym] = e.quote
	}
	return out, nil
}

func (c *MemoryBatchCache) PutMany(_ context.Context, quotes map[string]Quote) error {
	expires := c.now().Add(c.ttl)
	c.mu.Lock()
	for sym, q := range quotes {
		c.entries[sym] = memoryEntry{quote: q, expires: expires}
	}
	c.mu.Unlock()
	return nil
}

// RedisBatchCache shares batch results between replicas.
type RedisBatchCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BatchCache = (*RedisBatchCache)(nil)

func NewRedisBatchCache(client *redis.Client, ttl time.Duration) *RedisBatchCache {
	return &RedisBatchCache{client: client, ttl: ttl}
}

func batchKey(symbol string) string {
	return fmt.Sprintf("prices:batch:%s", symbol)
}

func (c *RedisBatchCache) GetMany(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	pipe := c.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(symbols))
	for _, sym := range symbols {
		cmds[sym] = pipe.Get(ctx, batchKey(sym))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("batch cache get: %w", err)
	}
	for sym, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("batch cache get %s: %w", sym, err)
		}
		var q Quote
		if err := json.Unmarshal(data, &q); err != nil {
			continue
		}
		out[sym] = q
	}
	return out, nil
}

func (c *RedisBatchCache) PutMany(ctx context.Context, quotes map[string]Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for sym, q := range quotes {
			data, err := json.Marshal(q)
			if err != nil {
				return err
			}
			pipe.Set(ctx, batchKey(sym), data, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch cache put: %w", err)
	}
	return nil
}
