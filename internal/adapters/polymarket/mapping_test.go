package polymarket

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseTradeTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, want, parseTradeTimestamp(json.Number("1772366400")))
	assert.Equal(t, want, parseTradeTimestamp(json.Number("1772366400000")))
	assert.Equal(t, want, parseTradeTimestamp(json.Number("2026-03-01T12:00:00Z")))
	assert.True(t, parseTradeTimestamp(json.Number("yesterday")).IsZero())
}

func TestMapTrade_MalformedValuesSurviveForRejection(t *testing.T) {
	f := mapTrade(rawTrade{Side: "hold", Price: "abc", Size: "", ConditionID: "c", Asset: "a"}, 3)

	assert.Equal(t, domain.Side("HOLD"), f.Side)
	assert.True(t, math.IsNaN(f.Price))
	assert.True(t, math.IsNaN(f.Size))
	assert.Equal(t, "seq-000003", f.ID)

	rec := domain.Reconstruct([]domain.Fill{f}, nil)
	assert.Len(t, rec.Rejected, 1)
}

func TestMapGammaMarket(t *testing.T) {
	tests := []struct {
		name       string
		in         gammaMarket
		resolved   bool
		winner     string
		token      string
		category   string
		resolvedAt time.Time
	}{
		{
			name:     "open market",
			in:       gammaMarket{ConditionID: "c", Question: "Q", Outcomes: `["Yes","No"]`, OutcomePrices: `["0.5","0.5"]`},
			category: "uncategorized",
		},
		{
			name:     "closed without final price stays open",
			in:       gammaMarket{ConditionID: "c", Closed: true, Outcomes: `["Yes","No"]`, OutcomePrices: `["0.55","0.45"]`},
			category: "uncategorized",
		},
		{
			name: "resolved yes",
			in: gammaMarket{
				ConditionID: "c", Category: "Sports", Closed: true,
				Outcomes: `["Yes","No"]`, OutcomePrices: `["1","0"]`, ClobTokenIDs: `["t1","t2"]`,
				ClosedTime: "2026-02-01T10:00:00Z",
			},
			resolved:   true,
			winner:     "Yes",
			token:      "t1",
			category:   "Sports",
			resolvedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "resolved without token ids",
			in: gammaMarket{
				ConditionID: "c", Closed: true,
				Outcomes: `["Up","Down"]`, OutcomePrices: `["0","1"]`,
			},
			resolved: true,
			winner:   "Down",
			category: "uncategorized",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mapGammaMarket(tt.in)
			assert.Equal(t, tt.resolved, m.IsResolved())
			assert.Equal(t, tt.winner, m.WinningOutcome)
			assert.Equal(t, tt.token, m.WinningToken)
			assert.Equal(t, tt.category, m.Category)
			assert.Equal(t, tt.resolvedAt, m.ResolvedAt)
		})
	}
}

func TestParseGammaTime(t *testing.T) {
	want := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, want, parseGammaTime("2026-03-10 18:00:00+00"))
	assert.Equal(t, want, parseGammaTime("2026-03-10T18:00:00Z"))
	assert.Equal(t, want, parseGammaTime("2026-03-10T20:00:00+02:00"))
	assert.True(t, parseGammaTime("").IsZero())
	assert.True(t, parseGammaTime("soon").IsZero())
}
