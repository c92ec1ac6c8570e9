package polymarket

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
)

// mapTrade convierte un rawTrade a domain.Fill.
// Los valores que no parsean quedan como NaN / lado vacío: la reconstrucción los rechaza
// como MalformedFill en lugar de corregirlos aquí.
func mapTrade(rt rawTrade, seq int) domain.Fill {
	side, ok := domain.ParseSide(rt.Side)
	if !ok {
		side = domain.Side(strings.ToUpper(rt.Side))
	}
	return domain.Fill{
		ID:           tradeID(rt, seq),
		Wallet:       strings.ToLower(rt.ProxyWallet),
		MarketID:     rt.ConditionID,
		OutcomeToken: rt.Asset,
		Outcome:      rt.Outcome,
		Side:         side,
		Price:        parseNumber(rt.Price),
		Size:         parseNumber(rt.Size),
		Timestamp:    parseTradeTimestamp(rt.Timestamp),
	}
}

// tradeID construye un ID estable. Un mismo tx hash puede contener varios fills,
// así que se añade el asset y la posición dentro de la respuesta.
func tradeID(rt rawTrade, seq int) string {
	if rt.TransactionHash == "" {
		return fmt.Sprintf("seq-%06d", seq)
	}
	return fmt.Sprintf("%s:%s:%d", rt.TransactionHash, rt.Asset, seq)
}

func parseNumber(n json.Number) float64 {
	if n == "" {
		return math.NaN()
	}
	f, err := n.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseTradeTimestamp(n json.Number) time.Time {
	s := n.String()
	// unix timestamp (segundos o milisegundos)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.UnixMilli(sec).UTC()
		}
		return time.Unix(sec, 0).UTC()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC()
	}
	return parseGammaTime(s)
}

// parseGammaTime intenta los formatos de fecha que usa Polymarket.
// Devuelve time.Time{} si ninguno aplica.
func parseGammaTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05-07",
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Un mercado se considera resuelto cuando está cerrado y uno de sus outcomes cotiza a 1.
func mapGammaMarket(gm gammaMarket) domain.Market {
	m := domain.Market{
		ID:       gm.ConditionID,
		Title:    gm.Question,
		Category: gm.Category,
		State:    domain.MarketOpen,
	}
	if m.Title == "" {
		m.Title = "Unknown Market"
	}
	if m.Category == "" && len(gm.Events) > 0 {
		m.Category = gm.Events[0].Category
	}
	if m.Category == "" {
		m.Category = "uncategorized"
	}

	if !gm.Closed {
		return m
	}

	outcomes := parseStringArray(gm.Outcomes)
	prices := parseStringArray(gm.OutcomePrices)
	tokens := parseStringArray(gm.ClobTokenIDs)

	winner := -1
	for i, p := range prices {
		if f, err := strconv.ParseFloat(p, 64); err == nil && f == 1 {
			winner = i
			break
		}
	}
	if winner < 0 {
		return m
	}

	m.State = domain.MarketResolved
	if winner < len(outcomes) {
		m.WinningOutcome = outcomes[winner]
	}
	if winner < len(tokens) {
		m.WinningToken = tokens[winner]
	}
	// endDate es la fecha programada, no la de resolución: no sirve como fallback.
	m.ResolvedAt = parseGammaTime(gm.ClosedTime)
	return m
}

// parseStringArray decodifica campos de Gamma como "[\"Yes\", \"No\"]".
func parseStringArray(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
