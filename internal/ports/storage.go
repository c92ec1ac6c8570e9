package ports

import (
	"context"

	"github.com/dorimacman/polalfa/internal/domain"
)

// SummaryCache es el cache read-through de resúmenes, con clave (wallet, range).
// Las escrituras son idempotentes: last-writer-wins.
type SummaryCache interface {
	// Get devuelve el resumen cacheado y true si existe y no expiró.
	Get(ctx context.Context, wallet string, r domain.Range) (domain.WalletSummary, bool, error)

	// Set guarda un resumen completo. Nunca se llama con resultados parciales.
	Set(ctx context.Context, s domain.WalletSummary) error

	// Close libera los recursos del backend.
	Close() error
}
