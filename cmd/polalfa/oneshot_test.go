package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorimacman/polalfa/config"
	"github.com/dorimacman/polalfa/internal/adapters/storage"
	"github.com/dorimacman/polalfa/internal/domain"
)

type recordingNotifier struct {
	r         domain.Range
	summaries []domain.WalletSummary
}

func (n *recordingNotifier) Notify(_ context.Context, r domain.Range, s []domain.WalletSummary) error {
	n.r = r
	n.summaries = s
	return nil
}

func TestParseWallets(t *testing.T) {
	got := parseWallets(" 0xaa, 0xbb,,0xcc\t0xdd ")
	assert.Equal(t, []string{"0xaa", "0xbb", "0xcc", "0xdd"}, got)
	assert.Empty(t, parseWallets(" , "))
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Cache: config.CacheConfig{Backend: "none", TTLSeconds: 60}}
	c, err := openCache(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Cache.Backend = "memory"
	c, err = openCache(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryCache{}, c)

	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = ":memory:"
	c, err = openCache(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteCache{}, c)
	require.NoError(t, c.Close())

	cfg.Cache.Backend = "bogus"
	_, err = openCache(ctx, cfg)
	assert.Error(t, err)
}

func TestRunCached(t *testing.T) {
	ctx := context.Background()
	sq, err := storage.NewSQLiteCache(":memory:", time.Minute)
	require.NoError(t, err)
	defer sq.Close()

	for i, score := range []float64{0.2, 0.8, 0.5} {
		s := domain.WalletSummary{
			Wallet:      "0x" + string(rune('a'+i)) + "000000000000000000000000000000000000000",
			Range:       domain.Range30d,
			TraderScore: score,
		}
		require.NoError(t, sq.Set(ctx, s))
	}

	n := &recordingNotifier{}
	require.NoError(t, runCached(ctx, sq, n, domain.Range30d, 2))
	require.Len(t, n.summaries, 2)
	assert.Equal(t, 0.8, n.summaries[0].TraderScore)
	assert.Equal(t, 0.5, n.summaries[1].TraderScore)

	assert.Error(t, runCached(ctx, storage.NewMemoryCache(time.Minute), n, domain.Range30d, 2))
	assert.Error(t, runCached(ctx, sq, n, "1y", 2))
}

func TestAnalyzerConfigMapping(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{BatchTimeoutSeconds: 5},
		Analysis: config.AnalysisConfig{
			Workers:            4,
			MaxWallets:         10,
			MinResolvedMarkets: 3,
			Score:              config.ScoreConfig{Z: 1.96, ROIWeight: 0.2},
		},
	}
	a := analyzerConfig(cfg)
	assert.Equal(t, 4, a.Workers)
	assert.Equal(t, 5*time.Second, a.BatchTimeout)
	assert.Equal(t, 3, a.Filter.MinResolvedMarkets)
	assert.Equal(t, 1.96, a.Score.Z)
	assert.Equal(t, 0.2, a.Score.ROIWeight)
}
