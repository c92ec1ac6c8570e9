package domain

import (
	"strings"
	"time"
)

// ResolutionState es el estado de resolución de un mercado.
// Solo transiciona open → resolved, nunca al revés.
type ResolutionState string

const (
	MarketOpen     ResolutionState = "open"
	MarketResolved ResolutionState = "resolved"
)

// Market representa un mercado de predicción de Polymarket tal como lo ve el motor.
type Market struct {
	ID       string // condition_id
	Title    string // passthrough de Gamma, solo para display
	Category string // passthrough de Gamma, solo para display
	State    ResolutionState

	// Presentes solo si State == MarketResolved.
	WinningOutcome string // etiqueta ("Yes", "No", ...)
	WinningToken   string // token_id ganador, si Gamma lo expone
	ResolvedAt     time.Time
}

// UnknownMarket es el placeholder que se usa cuando Gamma no devuelve metadata.
// Se trata como abierto: sin resolución conocida no hay PnL realizado.
func UnknownMarket(id string) Market {
	return Market{
		ID:       id,
		Title:    "Unknown Market",
		Category: "uncategorized",
		State:    MarketOpen,
	}
}

// IsResolved devuelve true si el mercado ya se resolvió.
func (m Market) IsResolved() bool {
	return m.State == MarketResolved
}

// SettlementPrice devuelve el valor de liquidación de un outcome: 1.0 si es el ganador,
// 0.0 si no. Compara por token_id cuando ambos lados lo tienen, si no por etiqueta.
func (m Market) SettlementPrice(outcomeToken, outcomeLabel string) float64 {
	if !m.IsResolved() {
		return 0
	}
	if m.WinningToken != "" && outcomeToken != "" {
		if m.WinningToken == outcomeToken {
			return 1
		}
		return 0
	}
	if m.WinningOutcome != "" && strings.EqualFold(m.WinningOutcome, outcomeLabel) {
		return 1
	}
	return 0
}

// TruncateTitle devuelve el título truncado a maxLen caracteres.
// Si el título está vacío usa los primeros caracteres del condition_id.
func TruncateTitle(title, marketID string, maxLen int) string {
	q := title
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
