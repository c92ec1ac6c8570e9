package storage

import (
	"context"
	"testing"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSummary(wallet string, score, roi float64) domain.WalletSummary {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exit := 1.0
	return domain.WalletSummary{
		Wallet:            wallet,
		Range:             domain.Range30d,
		Window:            domain.Range30d.WindowAt(last),
		HitRate:           0.75,
		ROI:               roi,
		RealizedPnL:       120.5,
		TotalVolume:       900,
		LastTradeTime:     &last,
		TraderScore:       score,
		ResolvedMarkets:   4,
		ProfitableMarkets: 3,
		Markets: []domain.MarketDetail{{
			MarketID:      "0xc1",
			Title:         "Will it rain?",
			Resolved:      true,
			Stake:         50,
			PnL:           50,
			EntryPrice:    0.5,
			ExitPrice:     &exit,
			LastTradeTime: last,
		}},
	}
}

func newTestSQLite(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(":memory:", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCache_SetAndGet(t *testing.T) {
	c := newTestSQLite(t, time.Minute)
	ctx := context.Background()
	want := makeSummary("0xaaa", 0.7, 0.2)

	require.NoError(t, c.Set(ctx, want))

	got, ok, err := c.Get(ctx, "0xAAA", domain.Range30d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Wallet, got.Wallet)
	assert.Equal(t, want.TraderScore, got.TraderScore)
	assert.True(t, want.LastTradeTime.Equal(*got.LastTradeTime))
	require.Len(t, got.Markets, 1)
	assert.Equal(t, 1.0, *got.Markets[0].ExitPrice)

	_, ok, err = c.Get(ctx, "0xaaa", domain.Range7d)
	require.NoError(t, err)
	assert.False(t, ok, "la clave incluye el rango")
}

func TestSQLiteCache_Expiry(t *testing.T) {
	c := newTestSQLite(t, time.Minute)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.7, 0.2)))

	now = now.Add(2 * time.Minute)
	_, ok, err := c.Get(ctx, "0xaaa", domain.Range30d)
	require.NoError(t, err)
	assert.False(t, ok)

	c.pruneExpired(ctx)
	var n int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM wallet_summaries`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSQLiteCache_UpsertLastWriterWins(t *testing.T) {
	c := newTestSQLite(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.1, 0.2)))
	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.9, 0.2)))

	got, ok, err := c.Get(ctx, "0xaaa", domain.Range30d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.9, got.TraderScore)

	var n int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM wallet_summaries`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLiteCache_Leaderboard(t *testing.T) {
	c := newTestSQLite(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, makeSummary("0xccc", 0.6, 0.9)))
	require.NoError(t, c.Set(ctx, makeSummary("0xbbb", 0.8, 0.3)))
	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.8, 0.5)))

	top, err := c.Leaderboard(ctx, domain.Range30d, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0xaaa", top[0].Wallet)
	assert.Equal(t, "0xbbb", top[1].Wallet)

	empty, err := c.Leaderboard(ctx, domain.Range30d, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteCache_ZeroTTLDisablesWrites(t *testing.T) {
	c := newTestSQLite(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, makeSummary("0xaaa", 0.7, 0.2)))
	_, ok, err := c.Get(ctx, "0xaaa", domain.Range30d)
	require.NoError(t, err)
	assert.False(t, ok)
}
