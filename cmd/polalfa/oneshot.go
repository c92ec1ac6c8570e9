package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dorimacman/polalfa/internal/adapters/storage"
	"github.com/dorimacman/polalfa/internal/application/analyzer"
	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/dorimacman/polalfa/internal/ports"
)

func runAnalyze(ctx context.Context, svc *analyzer.Service, notifier ports.Notifier, wallets []string, r domain.Range) error {
	res, err := svc.Analyze(ctx, analyzer.AnalyzeRequest{Wallets: wallets, Range: r})
	if err != nil {
		return err
	}

	summaries := make([]domain.WalletSummary, 0, len(res.Wallets))
	for _, w := range res.Wallets {
		if w.Err != nil {
			slog.Warn("wallet analysis failed", "wallet", w.Wallet, "err", w.Err)
			continue
		}
		summaries = append(summaries, *w.Summary)
	}
	return notifier.Notify(ctx, r, summaries)
}

func runTop(ctx context.Context, svc *analyzer.Service, notifier ports.Notifier, r domain.Range, limit, offset int) error {
	res, err := svc.TopWallets(ctx, analyzer.TopRequest{Range: r, Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	slog.Info("leaderboard ready",
		"candidates", res.Candidates,
		"qualified", res.Qualified,
		"shown", len(res.Wallets),
	)
	return notifier.Notify(ctx, r, res.Wallets)
}

// runCached imprime el leaderboard de lo que ya está en el cache SQLite, sin llamar upstream.
func runCached(ctx context.Context, cache ports.SummaryCache, notifier ports.Notifier, r domain.Range, limit int) error {
	sq, ok := cache.(*storage.SQLiteCache)
	if !ok {
		return fmt.Errorf("-cached requires the sqlite cache backend")
	}
	r, err := domain.ParseRange(string(r))
	if err != nil {
		return err
	}
	summaries, err := sq.Leaderboard(ctx, r, limit)
	if err != nil {
		return err
	}
	return notifier.Notify(ctx, r, summaries)
}

// parseWallets separa la lista de -analyze por comas o espacios.
func parseWallets(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
