package analyzer

import (
	"github.com/dorimacman/polalfa/internal/domain"
)

// FilterConfig contiene los umbrales de actividad mínima del modo top-N.
type FilterConfig struct {
	// MinResolvedMarkets descarta wallets con pocos mercados resueltos (rachas de suerte).
	MinResolvedMarkets int
	// MinVolume descarta wallets con volumen notional menor (USDC).
	MinVolume float64
	// MaxSingleMarketWeight descarta wallets cuyo stake resuelto se concentra en un solo
	// mercado por encima de esta fracción. 0 desactiva el filtro.
	MaxSingleMarketWeight float64
}

// DefaultFilterConfig devuelve la configuración de producción.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinResolvedMarkets:    3,
		MinVolume:             50,
		MaxSingleMarketWeight: 0.6,
	}
}

// Filter aplica los umbrales sobre los resúmenes de los candidatos.
// Solo mira campos agregados, nunca el score.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply devuelve los resúmenes que pasan todos los filtros, en el mismo orden.
func (f *Filter) Apply(summaries []domain.WalletSummary) []domain.WalletSummary {
	result := make([]domain.WalletSummary, 0, len(summaries))
	for _, s := range summaries {
		if f.passes(s) {
			result = append(result, s)
		}
	}
	return result
}

// passes devuelve true si el resumen supera todos los criterios.
func (f *Filter) passes(s domain.WalletSummary) bool {
	if f.cfg.MinResolvedMarkets > 0 && s.ResolvedMarkets < f.cfg.MinResolvedMarkets {
		return false
	}
	if f.cfg.MinVolume > 0 && s.TotalVolume < f.cfg.MinVolume {
		return false
	}
	if f.cfg.MaxSingleMarketWeight > 0 && s.MaxMarketWeight() > f.cfg.MaxSingleMarketWeight {
		return false
	}
	return true
}
