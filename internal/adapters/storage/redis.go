package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "polalfa:summary:"

// RedisOptions configura la conexión del RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache implementa ports.SummaryCache sobre Redis. Permite compartir el cache
// entre varias réplicas del servicio; la expiración la gestiona Redis con el TTL de SET.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache conecta con Redis y verifica la conexión con un PING.
func NewRedisCache(ctx context.Context, opts RedisOptions, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage.NewRedisCache: ping %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get devuelve el resumen si existe. redis.Nil es un miss, no un error.
func (c *RedisCache) Get(ctx context.Context, wallet string, r domain.Range) (domain.WalletSummary, bool, error) {
	data, err := c.client.Get(ctx, redisKey(wallet, r)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.WalletSummary{}, false, nil
	}
	if err != nil {
		return domain.WalletSummary{}, false, fmt.Errorf("storage.RedisCache.Get: %w", err)
	}

	s, err := decodeSummary(data)
	if err != nil {
		return domain.WalletSummary{}, false, fmt.Errorf("storage.RedisCache.Get: %w", err)
	}
	return s, true, nil
}

// Set guarda el resumen con el TTL del cache. Last-writer-wins.
func (c *RedisCache) Set(ctx context.Context, s domain.WalletSummary) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := encodeSummary(s)
	if err != nil {
		return fmt.Errorf("storage.RedisCache.Set: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(s.Wallet, s.Range), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storage.RedisCache.Set: %w", err)
	}
	return nil
}

// Close cierra el pool de conexiones.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func redisKey(wallet string, r domain.Range) string {
	return redisKeyPrefix + cacheKey(wallet, r)
}
