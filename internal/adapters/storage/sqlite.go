package storage

// sqlite.go: cache persistente de resúmenes por (wallet, range).
//
// Estrategia:
//   - `wallet_summaries`: UNA fila por (wallet, range) con UPSERT. El resumen completo
//     va serializado en `payload`; score/roi/hit_rate se duplican en columnas para poder
//     consultar el leaderboard cacheado sin decodificar.
//   - Expiración por fila (`expires_at`, unix seconds). Get ignora filas expiradas.
//   - Prune automático al arrancar y cada pruneEvery escrituras.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallet_summaries (
    wallet       TEXT    NOT NULL,
    range_key    TEXT    NOT NULL,
    trader_score REAL    NOT NULL DEFAULT 0,
    roi          REAL    NOT NULL DEFAULT 0,
    hit_rate     REAL    NOT NULL DEFAULT 0,
    payload      BLOB    NOT NULL,
    computed_at  INTEGER NOT NULL,
    expires_at   INTEGER NOT NULL,
    PRIMARY KEY (wallet, range_key)
);

CREATE INDEX IF NOT EXISTS idx_summaries_expires ON wallet_summaries(expires_at);
CREATE INDEX IF NOT EXISTS idx_summaries_score   ON wallet_summaries(range_key, trader_score DESC);
`

// SQLiteCache implementa ports.SummaryCache usando SQLite (pure Go, sin CGo).
type SQLiteCache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
	writes int
}

// NewSQLiteCache abre (o crea) la base de datos en la ruta dada, aplica el schema
// y limpia las filas expiradas.
func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteCache: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteCache: apply schema: %w", err)
	}

	c := &SQLiteCache{db: db, ttl: ttl, now: time.Now}
	c.pruneExpired(context.Background())
	return c, nil
}

// Get devuelve el resumen si existe y no expiró.
func (c *SQLiteCache) Get(ctx context.Context, wallet string, r domain.Range) (domain.WalletSummary, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM wallet_summaries WHERE wallet = ? AND range_key = ? AND expires_at > ?`,
		strings.ToLower(wallet), string(r), c.now().Unix(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WalletSummary{}, false, nil
	}
	if err != nil {
		return domain.WalletSummary{}, false, fmt.Errorf("storage.SQLiteCache.Get: %w", err)
	}

	s, err := decodeSummary(payload)
	if err != nil {
		return domain.WalletSummary{}, false, fmt.Errorf("storage.SQLiteCache.Get: %w", err)
	}
	return s, true, nil
}

// Set hace upsert del resumen. Last-writer-wins.
func (c *SQLiteCache) Set(ctx context.Context, s domain.WalletSummary) error {
	if c.ttl <= 0 {
		return nil
	}
	payload, err := encodeSummary(s)
	if err != nil {
		return fmt.Errorf("storage.SQLiteCache.Set: %w", err)
	}
	now := c.now()

	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO wallet_summaries
			(wallet, range_key, trader_score, roi, hit_rate, payload, computed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wallet, range_key) DO UPDATE SET
			trader_score = excluded.trader_score,
			roi          = excluded.roi,
			hit_rate     = excluded.hit_rate,
			payload      = excluded.payload,
			computed_at  = excluded.computed_at,
			expires_at   = excluded.expires_at
	`,
		strings.ToLower(s.Wallet), string(s.Range), s.TraderScore, s.ROI, s.HitRate,
		payload, now.Unix(), now.Add(c.ttl).Unix(),
	); err != nil {
		return fmt.Errorf("storage.SQLiteCache.Set: upsert: %w", err)
	}

	c.mu.Lock()
	c.writes++
	prune := c.writes%pruneEvery == 0
	c.mu.Unlock()
	if prune {
		c.pruneExpired(ctx)
	}
	return nil
}

// Leaderboard devuelve los resúmenes vigentes de un rango ordenados por el mismo
// criterio que el ranking en vivo. Útil para inspeccionar el cache sin llamar upstream.
func (c *SQLiteCache) Leaderboard(ctx context.Context, r domain.Range, limit int) ([]domain.WalletSummary, error) {
	if limit <= 0 {
		return []domain.WalletSummary{}, nil
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT payload FROM wallet_summaries
		WHERE range_key = ? AND expires_at > ?
		ORDER BY trader_score DESC, roi DESC, hit_rate DESC, wallet ASC
		LIMIT ?
	`, string(r), c.now().Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteCache.Leaderboard: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.WalletSummary, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage.SQLiteCache.Leaderboard: scan: %w", err)
		}
		s, err := decodeSummary(payload)
		if err != nil {
			return nil, fmt.Errorf("storage.SQLiteCache.Leaderboard: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos limpiamente.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// pruneExpired elimina las filas expiradas. Best-effort: un fallo solo se loguea.
func (c *SQLiteCache) pruneExpired(ctx context.Context) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM wallet_summaries WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		slog.Warn("sqlite prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("sqlite pruned expired summaries", "rows", n)
	}
}
