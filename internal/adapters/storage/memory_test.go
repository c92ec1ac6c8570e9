package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSetExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "0xaaa", domain.Range30d)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.5, 0.1)))
	got, ok, err := c.Get(ctx, "0xAAA", domain.Range30d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.5, got.TraderScore)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "0xaaa", domain.Range30d)
	assert.False(t, ok, "expira exactamente al cumplir el TTL")
}

func TestMemoryCache_PrunesExpiredEntries(t *testing.T) {
	c := NewMemoryCache(time.Second)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < pruneEvery-1; i++ {
		require.NoError(t, c.Set(ctx, makeSummary(fmt.Sprintf("0x%03d", i), 0.1, 0)))
	}
	now = now.Add(time.Hour)
	require.NoError(t, c.Set(ctx, makeSummary("0xfresh", 0.1, 0)))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ConcurrentWriters(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, makeSummary("0xaaa", 0.4, 0.1))
			_, _, _ = c.Get(ctx, "0xaaa", domain.Range30d)
		}()
	}
	wg.Wait()

	got, ok, err := c.Get(ctx, "0xaaa", domain.Range30d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.4, got.TraderScore)
}
