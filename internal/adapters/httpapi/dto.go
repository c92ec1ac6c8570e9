package httpapi

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorimacman/polalfa/internal/domain"
)

// Redondeo de presentación: ratios a 4 decimales y montos a 2. Los valores de dominio
// nunca se redondean.
const (
	ratioPlaces = 4
	moneyPlaces = 2
)

type analyzeRequest struct {
	Wallets []string `json:"wallets"`
	Range   string   `json:"range"`
}

type analyzeResponse struct {
	Range   string           `json:"range"`
	Wallets []walletAnalysis `json:"wallets"`
	Detail  string           `json:"detail,omitempty"`
}

type walletAnalysis struct {
	Wallet            string         `json:"wallet"`
	HitRate           float64        `json:"hit_rate"`
	ROI               float64        `json:"roi"`
	RealizedPnL       float64        `json:"realized_pnl"`
	TotalVolumeTraded float64        `json:"total_volume_traded"`
	LastTradeTime     *string        `json:"last_trade_time"`
	TraderScore       float64        `json:"trader_score"`
	ResolvedMarkets   int            `json:"resolved_markets"`
	ProfitableMarkets int            `json:"profitable_markets"`
	OpenPositions     int            `json:"open_positions"`
	RejectedFills     int            `json:"rejected_fills"`
	Markets           []marketDetail `json:"markets"`
	Error             string         `json:"error,omitempty"`
}

type marketDetail struct {
	MarketID       string   `json:"market_id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Outcome        string   `json:"outcome"`
	Resolved       bool     `json:"resolved"`
	WinningOutcome *string  `json:"winning_outcome"`
	Stake          float64  `json:"stake"`
	NetStake       float64  `json:"net_stake"`
	PnL            float64  `json:"pnl"`
	EntryPrice     float64  `json:"entry_price"`
	ExitPrice      *float64 `json:"exit_price"`
	ResolvedAt     *string  `json:"resolved_at"`
	Positions      int      `json:"positions"`
	LastTradeTime  string   `json:"last_trade_time"`
}

type topWallet struct {
	Wallet            string  `json:"wallet"`
	HitRate           float64 `json:"hit_rate"`
	ROI               float64 `json:"roi"`
	TraderScore       float64 `json:"trader_score"`
	RealizedPnL       float64 `json:"realized_pnl"`
	TotalVolumeTraded float64 `json:"total_volume_traded"`
	ResolvedMarkets   int     `json:"resolved_markets"`
	ProfitableMarkets int     `json:"profitable_markets"`
	LastTradeTime     *string `json:"last_trade_time"`
}

type topResponse struct {
	Range      string      `json:"range"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
	Candidates int         `json:"candidates"`
	Qualified  int         `json:"qualified"`
	Wallets    []topWallet `json:"wallets"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func toWalletAnalysis(s domain.WalletSummary) walletAnalysis {
	markets := make([]marketDetail, 0, len(s.Markets))
	for _, m := range s.Markets {
		markets = append(markets, toMarketDetail(m))
	}
	return walletAnalysis{
		Wallet:            s.Wallet,
		HitRate:           round(s.HitRate, ratioPlaces),
		ROI:               round(s.ROI, ratioPlaces),
		RealizedPnL:       round(s.RealizedPnL, moneyPlaces),
		TotalVolumeTraded: round(s.TotalVolume, moneyPlaces),
		LastTradeTime:     formatTimePtr(s.LastTradeTime),
		TraderScore:       round(s.TraderScore, ratioPlaces),
		ResolvedMarkets:   s.ResolvedMarkets,
		ProfitableMarkets: s.ProfitableMarkets,
		OpenPositions:     s.OpenPositions,
		RejectedFills:     s.RejectedFills,
		Markets:           markets,
	}
}

func toMarketDetail(m domain.MarketDetail) marketDetail {
	d := marketDetail{
		MarketID:      m.MarketID,
		Title:         m.Title,
		Category:      m.Category,
		Outcome:       m.Outcome,
		Resolved:      m.Resolved,
		Stake:         round(m.Stake, moneyPlaces),
		NetStake:      round(m.NetStake, moneyPlaces),
		PnL:           round(m.PnL, moneyPlaces),
		EntryPrice:    round(m.EntryPrice, ratioPlaces),
		ResolvedAt:    formatTimePtr(m.ResolvedAt),
		Positions:     m.Positions,
		LastTradeTime: formatTime(m.LastTradeTime),
	}
	if m.Resolved && m.WinningOutcome != "" {
		w := m.WinningOutcome
		d.WinningOutcome = &w
	}
	if m.ExitPrice != nil {
		p := round(*m.ExitPrice, ratioPlaces)
		d.ExitPrice = &p
	}
	return d
}

func toTopWallet(s domain.WalletSummary) topWallet {
	return topWallet{
		Wallet:            s.Wallet,
		HitRate:           round(s.HitRate, ratioPlaces),
		ROI:               round(s.ROI, ratioPlaces),
		TraderScore:       round(s.TraderScore, ratioPlaces),
		RealizedPnL:       round(s.RealizedPnL, moneyPlaces),
		TotalVolumeTraded: round(s.TotalVolume, moneyPlaces),
		ResolvedMarkets:   s.ResolvedMarkets,
		ProfitableMarkets: s.ProfitableMarkets,
		LastTradeTime:     formatTimePtr(s.LastTradeTime),
	}
}

// round redondea half-away-from-zero en base decimal, sin los artefactos de math.Round
// sobre valores como 0.125.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := formatTime(*t)
	return &s
}
