package domain

import (
	"sort"
	"strings"
	"time"
)

// Side es el lado de un fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normaliza el lado devuelto por la API ("buy", "BUY", ...).
// Devuelve false si no es BUY ni SELL.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	}
	return "", false
}

// Fill es una pata de trade ejecutada. Inmutable una vez ingerida.
type Fill struct {
	ID           string
	Wallet       string
	MarketID     string // condition_id
	OutcomeToken string // asset / token_id del outcome
	Outcome      string // etiqueta del outcome ("Yes", "No", ...)
	Side         Side
	Price        float64
	Size         float64
	Timestamp    time.Time
}

// Notional devuelve |size × price| en USDC.
func (f Fill) Notional() float64 {
	n := f.Size * f.Price
	if n < 0 {
		return -n
	}
	return n
}

// PositionKey identifica el par (market, outcome) al que pertenece el fill.
func (f Fill) PositionKey() PositionKey {
	outcome := f.OutcomeToken
	if outcome == "" {
		outcome = strings.ToLower(f.Outcome)
	}
	return PositionKey{MarketID: f.MarketID, Outcome: outcome}
}

// PositionKey es la clave (market, outcome) de una posición.
type PositionKey struct {
	MarketID string
	Outcome  string
}

// SortFills ordena los fills por timestamp ascendente. Los empates se resuelven por ID,
// lado y precio para que la reconstrucción sea determinista.
func SortFills(fills []Fill) {
	sort.SliceStable(fills, func(i, j int) bool {
		a, b := fills[i], fills[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.Price < b.Price
	})
}

// MarketIDs devuelve los condition_ids distintos referenciados por los fills, en orden
// de primera aparición.
func MarketIDs(fills []Fill) []string {
	seen := make(map[string]bool, len(fills))
	ids := make([]string, 0)
	for _, f := range fills {
		if f.MarketID == "" || seen[f.MarketID] {
			continue
		}
		seen[f.MarketID] = true
		ids = append(ids, f.MarketID)
	}
	return ids
}

// FillsInWindow devuelve los fills cuyo timestamp cae dentro de la ventana.
func FillsInWindow(fills []Fill, w Window) []Fill {
	out := make([]Fill, 0, len(fills))
	for _, f := range fills {
		if w.Contains(f.Timestamp) {
			out = append(out, f)
		}
	}
	return out
}
