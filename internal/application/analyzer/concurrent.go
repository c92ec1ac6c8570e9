package analyzer

// concurrent.go: worker pool para analizar wallets en paralelo.
//
// El número de workers acota las requests simultáneas contra upstream; el rate limiter
// del cliente se encarga del resto.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/dorimacman/polalfa/internal/domain"
)

// walletResult es el resultado de una wallet dentro de un batch.
type walletResult struct {
	wallet  string
	summary domain.WalletSummary
	err     error
}

type summarizeFunc func(ctx context.Context, wallet string) (domain.WalletSummary, error)

// analyzeConcurrent procesa las wallets (sin duplicados) con un worker pool y devuelve
// un resultado por wallet, indexado por dirección.
//
// Si ctx expira antes de terminar, las wallets pendientes se reportan como
// ErrDataUnavailable: nunca quedan colgadas. Los workers que sigan en vuelo escriben
// en un canal con buffer y terminan solos.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func analyzeConcurrent(ctx context.Context, wallets []string, workers int, fn summarizeFunc) map[string]walletResult {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(wallets) {
		workers = len(wallets)
	}

	workCh := make(chan string, len(wallets))
	resultCh := make(chan walletResult, len(wallets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wallet := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- walletResult{wallet: wallet, err: unavailable(wallet, err)}
					continue
				}
				s, err := fn(ctx, wallet)
				if err != nil && ctx.Err() != nil && !errors.Is(err, domain.ErrDataUnavailable) {
					err = unavailable(wallet, err)
				}
				resultCh <- walletResult{wallet: wallet, summary: s, err: err}
			}
		}()
	}

	for _, w := range wallets {
		workCh <- w
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make(map[string]walletResult, len(wallets))
collect:
	for len(results) < len(wallets) {
		select {
		case r, ok := <-resultCh:
			if !ok {
				break collect
			}
			results[r.wallet] = r
		case <-ctx.Done():
			// Lo que ya está en el buffer terminó a tiempo.
			for len(results) < len(wallets) {
				select {
				case r, ok := <-resultCh:
					if !ok {
						break collect
					}
					results[r.wallet] = r
				default:
					break collect
				}
			}
		}
	}

	timedOut := 0
	for _, w := range wallets {
		if _, ok := results[w]; ok {
			continue
		}
		timedOut++
		results[w] = walletResult{wallet: w, err: unavailable(w, ctx.Err())}
	}

	slog.Debug("concurrent analysis complete",
		"wallets", len(wallets),
		"timed_out", timedOut,
		"workers", workers,
	)
	return results
}

// unavailable marca una wallet que no terminó dentro del plazo del batch.
func unavailable(wallet string, cause error) error {
	return &domain.WalletError{
		Wallet: wallet,
		Err:    fmt.Errorf("%w: batch deadline exceeded: %w", domain.ErrDataUnavailable, cause),
	}
}
