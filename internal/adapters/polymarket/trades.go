package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dorimacman/polalfa/internal/domain"
)

const (
	activityPerPage = 500
	tradesPerPage   = 1000
)

// FetchTrades obtiene los fills de una wallet dentro de la ventana usando
// GET /activity?type=TRADE de la Data API. Los fills se devuelven en orden
// ascendente de timestamp.
func (c *Client) FetchTrades(ctx context.Context, wallet string, w domain.Window) ([]domain.Fill, error) {
	var all []domain.Fill

	for offset := 0; offset < c.maxFills; offset += activityPerPage {
		q := url.Values{}
		q.Set("user", wallet)
		q.Set("type", "TRADE")
		q.Set("start", strconv.FormatInt(w.Start.Unix(), 10))
		q.Set("end", strconv.FormatInt(w.End.Unix(), 10))
		q.Set("limit", strconv.Itoa(activityPerPage))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("sortBy", "TIMESTAMP")
		q.Set("sortDirection", "ASC")

		var resp []rawTrade
		if err := c.get(ctx, apiData, c.dataLimiter, c.dataBase+"/activity?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("data-api.FetchTrades: %w: %w", domain.ErrDataUnavailable, err)
		}

		for i, rt := range resp {
			if rt.Type != "" && !strings.EqualFold(rt.Type, "TRADE") {
				continue
			}
			f := mapTrade(rt, offset+i)
			if f.Wallet == "" {
				f.Wallet = wallet
			}
			all = append(all, f)
		}

		slog.Debug("fetched activity page",
			"wallet", domain.ShortAddress(wallet),
			"offset", offset,
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < activityPerPage {
			break
		}
		if offset+activityPerPage >= c.maxFills {
			slog.Warn("wallet history truncated",
				"wallet", domain.ShortAddress(wallet),
				"max_fills", c.maxFills,
			)
		}
	}

	// Upstream filtra por start/end, pero no dependemos de ello para los bordes.
	all = domain.FillsInWindow(all, w)
	domain.SortFills(all)
	return all, nil
}

// ListActiveWallets recorre las páginas más recientes de GET /trades y agrega
// el volumen notional por proxyWallet dentro de la ventana. Devuelve hasta limit
// wallets ordenadas por volumen descendente (desempate por dirección).
func (c *Client) ListActiveWallets(ctx context.Context, w domain.Window, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	volume := make(map[string]float64)
	scanned := 0

pages:
	for page := 0; page < c.discoveryPages; page++ {
		offset := page * tradesPerPage
		u := fmt.Sprintf("%s/trades?limit=%d&offset=%d&takerOnly=false",
			c.dataBase, tradesPerPage, offset)

		var resp []rawTrade
		if err := c.get(ctx, apiData, c.dataLimiter, u, &resp); err != nil {
			if page > 0 && len(volume) > 0 {
				// Con al menos una página tenemos candidatos suficientes para continuar.
				slog.Warn("trades discovery page failed, using partial candidates",
					"page", page,
					"err", err,
				)
				break
			}
			return nil, fmt.Errorf("data-api.ListActiveWallets: %w: %w", domain.ErrDataUnavailable, err)
		}

		for i, rt := range resp {
			f := mapTrade(rt, offset+i)
			scanned++
			if f.Wallet == "" {
				continue
			}
			// /trades viene del más reciente al más antiguo.
			if !f.Timestamp.IsZero() && f.Timestamp.Before(w.Start) {
				break pages
			}
			if !w.Contains(f.Timestamp) {
				continue
			}
			if n := f.Notional(); !math.IsNaN(n) {
				volume[f.Wallet] += n
			}
		}

		if len(resp) < tradesPerPage {
			break
		}
	}

	wallets := make([]string, 0, len(volume))
	for addr := range volume {
		if _, err := domain.NormalizeAddress(addr); err != nil {
			continue
		}
		wallets = append(wallets, addr)
	}
	sort.Slice(wallets, func(i, j int) bool {
		vi, vj := volume[wallets[i]], volume[wallets[j]]
		if vi != vj {
			return vi > vj
		}
		return wallets[i] < wallets[j]
	})
	if len(wallets) > limit {
		wallets = wallets[:limit]
	}

	slog.Debug("candidate discovery complete",
		"trades_scanned", scanned,
		"wallets", len(volume),
		"returned", len(wallets),
	)
	return wallets, nil
}
