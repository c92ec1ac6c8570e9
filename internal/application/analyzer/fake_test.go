package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
)

var testNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func addr(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

// fakeSource implementa ports.TradeSource y ports.WalletDiscoverer en memoria.
type fakeSource struct {
	mu      sync.Mutex
	fills   map[string][]domain.Fill
	markets map[string]domain.Market
	errs    map[string]error
	delays  map[string]time.Duration
	calls   map[string]int

	active       []string
	discoverErr  error
	discoverWant int
	discovered   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fills:   map[string][]domain.Fill{},
		markets: map[string]domain.Market{},
		errs:    map[string]error{},
		delays:  map[string]time.Duration{},
		calls:   map[string]int{},
	}
}

// addHistory crea para la wallet `wins` mercados ganados y `losses` perdidos,
// cada uno con una compra de 100 @ 0.5, más `open` mercados sin resolver.
func (f *fakeSource) addHistory(wallet string, wins, losses, open int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := 0
	add := func(state domain.ResolutionState, winner string) {
		id := fmt.Sprintf("%s-m%d", wallet, i)
		f.fills[wallet] = append(f.fills[wallet], domain.Fill{
			ID:           fmt.Sprintf("%s-f%d", wallet, i),
			Wallet:       wallet,
			MarketID:     id,
			OutcomeToken: id + "-yes",
			Outcome:      "Yes",
			Side:         domain.SideBuy,
			Price:        0.5,
			Size:         100,
			Timestamp:    testNow.Add(-48*time.Hour + time.Duration(i)*time.Minute),
		})
		m := domain.Market{ID: id, Title: "Market " + id, Category: "test", State: state}
		if state == domain.MarketResolved {
			m.WinningOutcome = winner
			m.WinningToken = id + "-" + winner
			m.ResolvedAt = testNow.Add(-time.Hour)
		}
		f.markets[id] = m
		i++
	}
	for n := 0; n < wins; n++ {
		add(domain.MarketResolved, "yes")
	}
	for n := 0; n < losses; n++ {
		add(domain.MarketResolved, "no")
	}
	for n := 0; n < open; n++ {
		add(domain.MarketOpen, "")
	}
}

func (f *fakeSource) FetchTrades(ctx context.Context, wallet string, w domain.Window) ([]domain.Fill, error) {
	f.mu.Lock()
	f.calls[wallet]++
	delay := f.delays[wallet]
	err := f.errs[wallet]
	fills := append([]domain.Fill(nil), f.fills[wallet]...)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return fills, nil
}

func (f *fakeSource) FetchMarketStates(_ context.Context, ids []string) (map[string]domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.Market, len(ids))
	for _, id := range ids {
		if m, ok := f.markets[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeSource) ListActiveWallets(_ context.Context, _ domain.Window, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discovered++
	f.discoverWant = limit
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	if len(f.active) > limit {
		return append([]string(nil), f.active[:limit]...), nil
	}
	return append([]string(nil), f.active...), nil
}

func (f *fakeSource) callsFor(wallet string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[wallet]
}
