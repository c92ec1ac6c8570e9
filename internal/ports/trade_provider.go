package ports

import (
	"context"

	"github.com/dorimacman/polalfa/internal/domain"
)

// TradeSource es la fuente upstream de fills y estado de mercados.
// Los errores de red o rate limit tras agotar los retries envuelven domain.ErrDataUnavailable.
type TradeSource interface {
	// FetchTrades devuelve los fills de la wallet dentro de la ventana, en orden
	// ascendente de timestamp.
	FetchTrades(ctx context.Context, wallet string, w domain.Window) ([]domain.Fill, error)

	// FetchMarketStates devuelve la metadata y el estado de resolución de cada mercado.
	// Los IDs que upstream no conoce simplemente no aparecen en el mapa.
	FetchMarketStates(ctx context.Context, marketIDs []string) (map[string]domain.Market, error)
}

// WalletDiscoverer descubre candidatos para el modo top-N.
type WalletDiscoverer interface {
	// ListActiveWallets devuelve hasta limit wallets que operaron dentro de la ventana,
	// ordenadas por volumen notional descendente.
	ListActiveWallets(ctx context.Context, w domain.Window, limit int) ([]string, error)
}
