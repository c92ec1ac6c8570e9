package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wallets(ss []WalletSummary) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Wallet
	}
	return out
}

func TestRankSummaries_TieBreaks(t *testing.T) {
	ss := []WalletSummary{
		{Wallet: "C", TraderScore: 0.6, ROI: 0.9},
		{Wallet: "B", TraderScore: 0.8, ROI: 0.3},
		{Wallet: "A", TraderScore: 0.8, ROI: 0.5},
	}
	RankSummaries(ss)
	assert.Equal(t, []string{"A", "B"}, wallets(Paginate(ss, 0, 2)))
}

func TestRankSummaries_TotalOrder(t *testing.T) {
	ss := []WalletSummary{
		{Wallet: "0xd", TraderScore: 0.5, ROI: 0.1, HitRate: 0.5},
		{Wallet: "0xc", TraderScore: 0.5, ROI: 0.1, HitRate: 0.5},
		{Wallet: "0xb", TraderScore: 0.5, ROI: 0.1, HitRate: 0.7},
		{Wallet: "0xa", TraderScore: 0},
	}
	RankSummaries(ss)
	assert.Equal(t, []string{"0xb", "0xc", "0xd", "0xa"}, wallets(ss))
}

func TestPaginate(t *testing.T) {
	ss := []WalletSummary{{Wallet: "a"}, {Wallet: "b"}, {Wallet: "c"}}

	assert.Equal(t, []string{"b", "c"}, wallets(Paginate(ss, 1, 5)))

	empty := Paginate(ss, 0, 0)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Empty(t, Paginate(ss, 10, 2))
	assert.Equal(t, []string{"a"}, wallets(Paginate(ss, -3, 1)))
}
