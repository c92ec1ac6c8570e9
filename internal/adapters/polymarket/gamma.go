package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/dorimacman/polalfa/internal/domain"
)

const (
	gammaMarketsPath  = "/markets"
	gammaConditionMax = 20
)

// FetchMarketStates obtiene de Gamma la metadata y el estado de resolución de los
// mercados dados, en batches de gammaConditionMax condition_ids por request.
// Los mercados que Gamma no devuelve no aparecen en el mapa.
func (c *Client) FetchMarketStates(ctx context.Context, marketIDs []string) (map[string]domain.Market, error) {
	result := make(map[string]domain.Market, len(marketIDs))

	for i := 0; i < len(marketIDs); i += gammaConditionMax {
		end := i + gammaConditionMax
		if end > len(marketIDs) {
			end = len(marketIDs)
		}
		batch := marketIDs[i:end]

		q := url.Values{}
		for _, id := range batch {
			q.Add("condition_ids", id)
		}
		q.Set("limit", strconv.Itoa(len(batch)))

		var resp gammaMarketsResponse
		if err := c.get(ctx, apiGamma, c.gammaLimiter, c.gammaBase+gammaMarketsPath+"?"+q.Encode(), &resp); err != nil {
			// Sin estado de resolución el PnL saldría mal: la wallet entera queda sin datos.
			return nil, fmt.Errorf("gamma.FetchMarketStates: batch %d-%d: %w: %w", i, end, domain.ErrDataUnavailable, err)
		}

		for _, gm := range resp {
			if gm.ConditionID == "" {
				continue
			}
			result[gm.ConditionID] = mapGammaMarket(gm)
		}
	}

	slog.Debug("gamma market states fetched",
		"requested", len(marketIDs),
		"found", len(result),
	)
	return result, nil
}
