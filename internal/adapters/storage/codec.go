package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dorimacman/polalfa/internal/domain"
)

// cacheKey es la clave (wallet, range) compartida por todos los backends.
func cacheKey(wallet string, r domain.Range) string {
	return strings.ToLower(wallet) + ":" + string(r)
}

func encodeSummary(s domain.WalletSummary) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary %s: %w", s.Wallet, err)
	}
	return b, nil
}

func decodeSummary(b []byte) (domain.WalletSummary, error) {
	var s domain.WalletSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.WalletSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}
