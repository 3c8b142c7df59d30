package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBatchCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryBatchCache(2 * time.Second)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.PutMany(ctx, map[string]Quote{"EURUSD": {Bid: 1, Ask: 1.1}}))

	got, err := c.GetMany(ctx, []string{"EURUSD", "GBPUSD"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	c.now = func() time.Time { return base.Add(2 * time.Second) }
	got, err = c.GetMany(ctx, []string{"EURUSD"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBatchKey(t *testing.T) {
	assert.Equal(t, "prices:batch:EURUSD", batchKey("EURUSD"))
}
