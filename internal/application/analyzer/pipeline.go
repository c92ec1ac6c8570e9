package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/dorimacman/polalfa/internal/observability"
	"github.com/dorimacman/polalfa/internal/ports"
)

// Pipeline calcula el resumen de UNA wallet: ingesta → reconstrucción → agregación → score.
// Solo la ingesta bloquea; el resto es CPU puro sin estado compartido, así que varias
// wallets se procesan en paralelo sin coordinación.
type Pipeline struct {
	source  ports.TradeSource
	score   domain.ScoreParams
	metrics *observability.Metrics
}

// NewPipeline crea un Pipeline. metrics puede ser nil.
func NewPipeline(source ports.TradeSource, score domain.ScoreParams, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{source: source, score: score, metrics: metrics}
}

// Run calcula el resumen de la wallet para el rango anclado en now.
// Los errores de ingesta se devuelven envueltos en *domain.WalletError.
func (p *Pipeline) Run(ctx context.Context, wallet string, r domain.Range, now time.Time) (domain.WalletSummary, error) {
	w := r.WindowAt(now)

	fills, err := p.source.FetchTrades(ctx, wallet, w)
	if err != nil {
		return domain.WalletSummary{}, &domain.WalletError{Wallet: wallet, Err: fmt.Errorf("fetch trades: %w", err)}
	}
	fills = domain.FillsInWindow(fills, w)

	markets := map[string]domain.Market{}
	if ids := domain.MarketIDs(fills); len(ids) > 0 {
		markets, err = p.source.FetchMarketStates(ctx, ids)
		if err != nil {
			return domain.WalletSummary{}, &domain.WalletError{Wallet: wallet, Err: fmt.Errorf("fetch market states: %w", err)}
		}
	}

	rec := domain.Reconstruct(fills, markets)
	for _, fe := range rec.Rejected {
		slog.Warn("malformed fill excluded",
			"wallet", domain.ShortAddress(wallet),
			"fill", fe.Fill.ID,
			"market", fe.Fill.MarketID,
			"reason", fe.Reason,
		)
	}
	p.metrics.RecordRejectedFills(len(rec.Rejected))

	s := domain.Aggregate(wallet, r, w, rec, markets)
	s.TraderScore = domain.TraderScore(s, p.score)

	slog.Debug("wallet analyzed",
		"wallet", domain.ShortAddress(wallet),
		"range", r,
		"fills", s.TotalFills,
		"positions", len(rec.Positions),
		"resolved", s.ResolvedMarkets,
		"score", s.TraderScore,
	)
	return s, nil
}
