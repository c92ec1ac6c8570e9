package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeConcurrent_OneResultPerWallet(t *testing.T) {
	wallets := []string{addr(1), addr(2), addr(3), addr(4), addr(5)}
	var inFlight, peak atomic.Int32

	results := analyzeConcurrent(context.Background(), wallets, 2, func(_ context.Context, w string) (domain.WalletSummary, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return domain.WalletSummary{Wallet: w}, nil
	})

	require.Len(t, results, len(wallets))
	for _, w := range wallets {
		assert.NoError(t, results[w].err)
		assert.Equal(t, w, results[w].summary.Wallet)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAnalyzeConcurrent_DeadlineMarksPending(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	block := make(chan struct{})
	defer close(block)

	results := analyzeConcurrent(ctx, []string{addr(1), addr(2)}, 2, func(_ context.Context, w string) (domain.WalletSummary, error) {
		if w == addr(2) {
			<-block
		}
		return domain.WalletSummary{Wallet: w}, nil
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[addr(1)].err)
	assert.True(t, errors.Is(results[addr(2)].err, domain.ErrDataUnavailable))
	assert.True(t, errors.Is(results[addr(2)].err, context.DeadlineExceeded))
}

func TestAnalyzeConcurrent_Empty(t *testing.T) {
	results := analyzeConcurrent(context.Background(), nil, 4, func(context.Context, string) (domain.WalletSummary, error) {
		t.Fatal("no debería llamarse")
		return domain.WalletSummary{}, nil
	})
	assert.Empty(t, results)
}
