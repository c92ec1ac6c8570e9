package ports

import (
	"context"

	"github.com/dorimacman/polalfa/internal/domain"
)

// Notifier presenta un leaderboard de wallets al usuario.
type Notifier interface {
	// Notify muestra los resúmenes en el orden recibido.
	Notify(ctx context.Context, r domain.Range, summaries []domain.WalletSummary) error
}
