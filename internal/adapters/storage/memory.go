package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
)

type memoryEntry struct {
	summary   domain.WalletSummary
	expiresAt time.Time
}

// MemoryCache implementa ports.SummaryCache en memoria del proceso con TTL.
// Es el backend por defecto: sin dependencias externas y suficiente para una réplica.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]memoryEntry
	writes  int
}

// pruneEvery es cada cuántas escrituras se barren las entradas expiradas.
const pruneEvery = 256

// NewMemoryCache crea un cache en memoria con el TTL dado.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get devuelve el resumen si existe y no expiró.
func (c *MemoryCache) Get(_ context.Context, wallet string, r domain.Range) (domain.WalletSummary, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[cacheKey(wallet, r)]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return domain.WalletSummary{}, false, nil
	}
	return e.summary, true, nil
}

// Set guarda el resumen. Last-writer-wins.
func (c *MemoryCache) Set(_ context.Context, s domain.WalletSummary) error {
	if c.ttl <= 0 {
		return nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(s.Wallet, s.Range)] = memoryEntry{summary: s, expiresAt: now.Add(c.ttl)}
	c.writes++
	if c.writes%pruneEvery == 0 {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	return nil
}

// Len devuelve el número de entradas (incluidas las expiradas aún no barridas).
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close no hace nada; existe para cumplir ports.SummaryCache.
func (c *MemoryCache) Close() error { return nil }
