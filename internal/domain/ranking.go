package domain

import "sort"

// RankLess define el orden total del leaderboard: score desc, ROI desc, hit rate desc
// y, como último desempate, dirección de wallet asc.
func RankLess(a, b WalletSummary) bool {
	if a.TraderScore != b.TraderScore {
		return a.TraderScore > b.TraderScore
	}
	if a.ROI != b.ROI {
		return a.ROI > b.ROI
	}
	if a.HitRate != b.HitRate {
		return a.HitRate > b.HitRate
	}
	return a.Wallet < b.Wallet
}

// RankSummaries ordena in-place según RankLess.
func RankSummaries(summaries []WalletSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return RankLess(summaries[i], summaries[j])
	})
}

// Paginate devuelve la ventana [offset, offset+limit) de una lista ya ordenada.
// Nunca devuelve nil: limit 0 o un offset fuera de rango producen una lista vacía.
func Paginate(summaries []WalletSummary, offset, limit int) []WalletSummary {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(summaries) {
		return []WalletSummary{}
	}
	end := offset + limit
	if end > len(summaries) {
		end = len(summaries)
	}
	out := make([]WalletSummary, end-offset)
	copy(out, summaries[offset:end])
	return out
}
