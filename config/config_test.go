package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "PORT", "ALLOWED_ORIGINS", "CACHE_BACKEND", "SQLITE_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB"} {
		if _, ok := os.LookupEnv(k); ok {
			t.Setenv(k, "")
		}
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "30d", cfg.Server.DefaultRange)
	assert.Equal(t, 50, cfg.Server.DefaultLimit)
	assert.Equal(t, 60*time.Second, cfg.BatchTimeout())
	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "https://data-api.polymarket.com", cfg.API.DataBase)
	assert.Equal(t, 10, cfg.Analysis.MaxWallets)
	assert.Equal(t, 100, cfg.Analysis.MaxLimit)
	assert.Equal(t, 3, cfg.Analysis.MinResolvedMarkets)
	assert.Equal(t, 0.6, cfg.Analysis.MaxSingleMarketWeight)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_SampleFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1.96, cfg.Analysis.Score.Z)
	assert.Equal(t, 5000, cfg.API.MaxFills)
	assert.Contains(t, cfg.Server.AllowedOrigins, `polalfa\.vercel\.app`)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: sqlite\n")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	assert.ErrorContains(t, err, "memcached")

	_, err = Load(writeConfig(t, "cache:\n  backend: redis\n"))
	assert.ErrorContains(t, err, "redis_addr")

	_, err = Load(writeConfig(t, "server:\n  default_range: 1y\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "analysis:\n  score:\n    consistency_weight: 0.8\n    roi_weight: 0.2\n"))
	assert.ErrorContains(t, err, "evidence_weight")

	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("REDIS_DB", "zero")
	_, err = Load(path)
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestLoad_NegativeFiltersStayDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, "analysis:\n  min_resolved_markets: -1\n  min_volume: -1\n"))
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Analysis.MinResolvedMarkets)
	assert.Equal(t, -1.0, cfg.Analysis.MinVolume)
}
