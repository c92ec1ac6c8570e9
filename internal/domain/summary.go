package domain

import (
	"sort"
	"time"
)

// MarketDetail es el registro por (market, outcome) que se muestra al usuario.
// Suma todos los ciclos entrada/salida de la wallet en ese par.
type MarketDetail struct {
	MarketID       string
	Title          string
	Category       string
	OutcomeToken   string
	Outcome        string
	Resolved       bool
	WinningOutcome string
	ResolvedAt     *time.Time

	Positions     int
	OpenSize      float64
	Stake         float64
	NetStake      float64
	PnL           float64 // PnL de las posiciones ya cerradas del par
	EntryPrice    float64
	ExitPrice     *float64 // nil si alguna posición del par sigue abierta
	LastTradeTime time.Time
}

// WalletSummary es el resumen de rendimiento de una wallet en un rango.
type WalletSummary struct {
	Wallet string
	Range  Range
	Window Window

	HitRate       float64
	ROI           float64
	RealizedPnL   float64
	TotalVolume   float64
	LastTradeTime *time.Time
	TraderScore   float64

	ResolvedMarkets   int
	ProfitableMarkets int
	ResolvedStake     float64
	MaxMarketStake    float64 // mayor stake de un único par resuelto
	OpenPositions     int
	TotalFills        int
	RejectedFills     int

	Markets []MarketDetail
}

// MaxMarketWeight devuelve la fracción del stake resuelto concentrada en un solo par.
// Sirve para descartar wallets cuyo resultado depende de una única apuesta afortunada.
func (s WalletSummary) MaxMarketWeight() float64 {
	if s.ResolvedStake <= 0 {
		return 0
	}
	return s.MaxMarketStake / s.ResolvedStake
}

// Aggregate pliega las posiciones reconstruidas de una wallet en su resumen.
// Es una función pura de sus argumentos: no consulta estado global ni el reloj, por lo
// que dos llamadas con el mismo snapshot producen resultados idénticos bit a bit.
// El TraderScore queda en 0; lo asigna el modelo de score.
func Aggregate(wallet string, r Range, w Window, rec Reconstruction, markets map[string]Market) WalletSummary {
	s := WalletSummary{
		Wallet:        wallet,
		Range:         r,
		Window:        w,
		TotalFills:    len(rec.Fills),
		RejectedFills: len(rec.Rejected),
	}

	var last time.Time
	for _, f := range rec.Fills {
		s.TotalVolume += f.Notional()
		if f.Timestamp.After(last) {
			last = f.Timestamp
		}
	}
	if !last.IsZero() {
		t := last.UTC()
		s.LastTradeTime = &t
	}

	details := buildDetails(rec.Positions, markets)
	for _, d := range details {
		if !d.Resolved || d.Stake <= 0 {
			continue
		}
		s.ResolvedMarkets++
		s.ResolvedStake += d.Stake
		s.RealizedPnL += d.PnL
		if d.PnL > 0 {
			s.ProfitableMarkets++
		}
		if d.Stake > s.MaxMarketStake {
			s.MaxMarketStake = d.Stake
		}
	}
	for _, p := range rec.Positions {
		if !p.IsClosed() {
			s.OpenPositions++
		}
	}

	if s.ResolvedMarkets > 0 {
		s.HitRate = float64(s.ProfitableMarkets) / float64(s.ResolvedMarkets)
	}
	if s.ResolvedStake > 0 {
		s.ROI = s.RealizedPnL / s.ResolvedStake
	}

	s.Markets = details
	return s
}

// buildDetails agrupa las posiciones por (market, outcome) y las ordena por actividad
// más reciente primero.
func buildDetails(positions []Position, markets map[string]Market) []MarketDetail {
	type acc struct {
		detail    MarketDetail
		size      float64
		exitValue float64
		anyOpen   bool
	}

	byKey := make(map[PositionKey]*acc)
	var order []PositionKey
	for _, p := range positions {
		k := PositionKey{MarketID: p.MarketID, Outcome: p.OutcomeToken + "|" + p.Outcome}
		a, ok := byKey[k]
		if !ok {
			m, found := markets[p.MarketID]
			if !found {
				m = UnknownMarket(p.MarketID)
			}
			a = &acc{detail: MarketDetail{
				MarketID:     p.MarketID,
				Title:        m.Title,
				Category:     m.Category,
				OutcomeToken: p.OutcomeToken,
				Outcome:      p.Outcome,
				Resolved:     m.IsResolved(),
			}}
			if m.IsResolved() {
				a.detail.WinningOutcome = m.WinningOutcome
				if !m.ResolvedAt.IsZero() {
					t := m.ResolvedAt.UTC()
					a.detail.ResolvedAt = &t
				}
			}
			byKey[k] = a
			order = append(order, k)
		}

		d := &a.detail
		d.Positions++
		d.OpenSize += p.OpenSize
		d.Stake += p.Stake
		d.NetStake += p.NetStake
		d.PnL += p.PnL()
		if p.LastFillAt.After(d.LastTradeTime) {
			d.LastTradeTime = p.LastFillAt
		}
		a.size += p.Size
		if p.IsClosed() && p.ExitPrice != nil {
			a.exitValue += *p.ExitPrice * p.Size
		} else {
			a.anyOpen = true
		}
	}

	details := make([]MarketDetail, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		if a.size > 0 {
			a.detail.EntryPrice = a.detail.Stake / a.size
			if !a.anyOpen {
				exit := a.exitValue / a.size
				a.detail.ExitPrice = &exit
			}
		}
		details = append(details, a.detail)
	}

	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if !a.LastTradeTime.Equal(b.LastTradeTime) {
			return a.LastTradeTime.After(b.LastTradeTime)
		}
		if a.MarketID != b.MarketID {
			return a.MarketID < b.MarketID
		}
		return a.OutcomeToken+a.Outcome < b.OutcomeToken+b.Outcome
	})
	return details
}
