package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketFill(id, market, token string, side Side, price, size float64, at time.Duration) Fill {
	f := fill(id, side, price, size, at)
	f.MarketID = market
	f.OutcomeToken = token
	return f
}

func TestAggregate_MixedWallet(t *testing.T) {
	resolvedAt := t0.Add(72 * time.Hour)
	markets := map[string]Market{
		"win":  {ID: "win", Title: "Win", Category: "sports", State: MarketResolved, WinningOutcome: "Yes", WinningToken: "win-yes", ResolvedAt: resolvedAt},
		"lose": {ID: "lose", Title: "Lose", State: MarketResolved, WinningOutcome: "No", WinningToken: "lose-no", ResolvedAt: resolvedAt},
		"open": {ID: "open", Title: "Open", State: MarketOpen},
	}
	fills := []Fill{
		marketFill("1", "win", "win-yes", SideBuy, 0.50, 100, 0),            // +50
		marketFill("2", "lose", "lose-yes", SideBuy, 0.25, 40, time.Hour),   // −10
		marketFill("3", "open", "open-yes", SideBuy, 0.80, 10, 2*time.Hour), // abierta
	}
	w := Window{Start: t0.Add(-time.Hour), End: t0.Add(24 * time.Hour)}

	rec := Reconstruct(fills, markets)
	s := Aggregate("0xabc", Range30d, w, rec, markets)

	assert.Equal(t, 2, s.ResolvedMarkets)
	assert.Equal(t, 1, s.ProfitableMarkets)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
	assert.InDelta(t, 40, s.RealizedPnL, 1e-9)
	assert.InDelta(t, 60, s.ResolvedStake, 1e-9)
	assert.InDelta(t, 40.0/60.0, s.ROI, 1e-9)
	// el volumen incluye la posición abierta
	assert.InDelta(t, 50+10+8, s.TotalVolume, 1e-9)
	assert.Equal(t, 1, s.OpenPositions)
	assert.Equal(t, 3, s.TotalFills)
	require.NotNil(t, s.LastTradeTime)
	assert.Equal(t, t0.Add(2*time.Hour), *s.LastTradeTime)
	assert.InDelta(t, 50.0/60.0, s.MaxMarketWeight(), 1e-9)
	assert.Zero(t, s.TraderScore)

	require.Len(t, s.Markets, 3)
	assert.Equal(t, "open", s.Markets[0].MarketID, "detalle ordenado por actividad reciente")
	assert.Nil(t, s.Markets[0].ExitPrice)
	assert.False(t, s.Markets[0].Resolved)

	win := s.Markets[2]
	assert.Equal(t, "win", win.MarketID)
	assert.Equal(t, "sports", win.Category)
	assert.True(t, win.Resolved)
	assert.Equal(t, "Yes", win.WinningOutcome)
	require.NotNil(t, win.ResolvedAt)
	require.NotNil(t, win.ExitPrice)
	assert.InDelta(t, 1, *win.ExitPrice, 1e-9)
	assert.InDelta(t, 0.5, win.EntryPrice, 1e-9)
}

func TestAggregate_AllOpenUsesZeroConvention(t *testing.T) {
	fills := []Fill{fill("1", SideBuy, 0.5, 10, 0)}
	rec := Reconstruct(fills, nil)
	s := Aggregate("0xabc", Range7d, Range7d.WindowAt(t0), rec, nil)

	assert.Equal(t, 0, s.ResolvedMarkets)
	assert.Equal(t, 0.0, s.HitRate)
	assert.Equal(t, 0.0, s.ROI)
	assert.Equal(t, 0.0, s.MaxMarketWeight())
	assert.Equal(t, 1, s.OpenPositions)
	require.Len(t, s.Markets, 1)
	assert.Equal(t, "Unknown Market", s.Markets[0].Title)
}

func TestAggregate_NoFills(t *testing.T) {
	s := Aggregate("0xabc", Range7d, Range7d.WindowAt(t0), Reconstruct(nil, nil), nil)
	assert.Nil(t, s.LastTradeTime)
	assert.Empty(t, s.Markets)
	assert.Zero(t, s.TotalVolume)
}

func TestAggregate_ReentryCountsOncePerPair(t *testing.T) {
	markets := map[string]Market{"cond-1": resolvedMarket("tok-yes", t0.Add(24*time.Hour))}
	fills := []Fill{
		fill("1", SideBuy, 0.50, 10, 0),
		fill("2", SideSell, 0.40, 10, time.Minute), // −1
		fill("3", SideBuy, 0.50, 10, 2*time.Minute),
	}
	rec := Reconstruct(fills, markets)
	require.Len(t, rec.Positions, 2)

	s := Aggregate("0xabc", Range30d, Range30d.WindowAt(t0), rec, markets)
	assert.Equal(t, 1, s.ResolvedMarkets)
	assert.Equal(t, 1, s.ProfitableMarkets)
	assert.InDelta(t, 4, s.RealizedPnL, 1e-9)
	require.Len(t, s.Markets, 1)
	assert.Equal(t, 2, s.Markets[0].Positions)
	assert.LessOrEqual(t, s.ProfitableMarkets, s.ResolvedMarkets)
}

func TestAggregate_Idempotent(t *testing.T) {
	markets := map[string]Market{"cond-1": resolvedMarket("tok-yes", t0.Add(24*time.Hour))}
	fills := []Fill{
		fill("1", SideBuy, 0.37, 13, 0),
		fill("2", SideSell, 0.41, 7, time.Minute),
		fill("3", SideBuy, 0.29, 3.5, 2*time.Minute),
	}
	w := Range30d.WindowAt(t0)

	a := Aggregate("0xabc", Range30d, w, Reconstruct(fills, markets), markets)
	b := Aggregate("0xabc", Range30d, w, Reconstruct(fills, markets), markets)
	assert.Equal(t, a, b)
}

func TestAggregate_SellOnlyWalletLosesWhenSoldOutcomeWins(t *testing.T) {
	resolvedAt := t0.Add(48 * time.Hour)
	markets := map[string]Market{"cond-1": resolvedMarket("tok-yes", resolvedAt)}
	// sin compra previa dentro de la ventana: la venta abre un lote short
	fills := []Fill{fill("1", SideSell, 0.40, 50, 0)}
	w := Window{Start: t0.Add(-time.Hour), End: t0.Add(24 * time.Hour)}

	s := Aggregate("0xabc", Range30d, w, Reconstruct(fills, markets), markets)

	assert.Equal(t, 1, s.ResolvedMarkets)
	assert.Equal(t, 0, s.ProfitableMarkets)
	assert.InDelta(t, -30, s.RealizedPnL, 1e-9)
	assert.InDelta(t, 20, s.ResolvedStake, 1e-9)
	assert.InDelta(t, -1.5, s.ROI, 1e-9)
}
