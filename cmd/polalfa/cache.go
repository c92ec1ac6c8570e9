package main

import (
	"context"
	"fmt"

	"github.com/dorimacman/polalfa/config"
	"github.com/dorimacman/polalfa/internal/adapters/storage"
	"github.com/dorimacman/polalfa/internal/ports"
)

// openCache crea el backend de cache configurado. "none" devuelve nil.
func openCache(ctx context.Context, cfg *config.Config) (ports.SummaryCache, error) {
	ttl := cfg.CacheTTL()
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "memory":
		return storage.NewMemoryCache(ttl), nil
	case "sqlite":
		c, err := storage.NewSQLiteCache(cfg.Cache.SQLitePath, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "redis":
		c, err := storage.NewRedisCache(ctx, storage.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("openCache: unknown backend %q", cfg.Cache.Backend)
}
