package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultDataBase  = "https://data-api.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Rate limits al 60% de los límites documentados.
	// Data API /trades, /activity: 200/10s → 120/10s → 12/s
	dataRatePerSec = 12
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18

	defaultMaxFills      = 5000
	defaultDiscoveryPage = 5

	defaultMaxRetries = 3
	baseRetryWait     = 500 * time.Millisecond
	defaultTimeout    = 10 * time.Second

	apiData  = "data"
	apiGamma = "gamma"
)

// errClient marca respuestas 4xx: no tiene sentido reintentarlas.
var errClient = errors.New("client error")

// Observer recibe una muestra por cada round trip HTTP. observability.Metrics lo implementa.
type Observer interface {
	RecordUpstream(api string, status int, d time.Duration)
	RecordRetry(api string)
}

// Options configura el Client. Los campos a cero usan los valores de producción.
type Options struct {
	DataBase        string
	GammaBase       string
	DataRatePerSec  float64
	GammaRatePerSec float64
	MaxRetries      int
	Timeout         time.Duration
	Observer        Observer

	// MaxFills acota los fills leídos por wallet; DiscoveryPages las páginas de /trades
	// recorridas para descubrir candidatos.
	MaxFills       int
	DiscoveryPages int
}

// Client es el HTTP client de las APIs públicas de Polymarket (Data API y Gamma)
// con rate limiting por API y retries con backoff exponencial.
type Client struct {
	http         *http.Client
	dataBase     string
	gammaBase    string
	dataLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	maxRetries   int
	retryWait    time.Duration
	observer     Observer

	maxFills       int
	discoveryPages int
}

// NewClient crea un Client con las opciones dadas.
func NewClient(opts Options) *Client {
	if opts.DataBase == "" {
		opts.DataBase = defaultDataBase
	}
	if opts.GammaBase == "" {
		opts.GammaBase = defaultGammaBase
	}
	if opts.DataRatePerSec <= 0 {
		opts.DataRatePerSec = dataRatePerSec
	}
	if opts.GammaRatePerSec <= 0 {
		opts.GammaRatePerSec = gammaRatePerSec
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFills <= 0 {
		opts.MaxFills = defaultMaxFills
	}
	if opts.DiscoveryPages <= 0 {
		opts.DiscoveryPages = defaultDiscoveryPage
	}
	return &Client{
		http:         &http.Client{Timeout: opts.Timeout},
		dataBase:     opts.DataBase,
		gammaBase:    opts.GammaBase,
		dataLimiter:  rate.NewLimiter(rate.Limit(opts.DataRatePerSec), 5),
		gammaLimiter: rate.NewLimiter(rate.Limit(opts.GammaRatePerSec), 10),
		maxRetries:   opts.MaxRetries,
		retryWait:    baseRetryWait,
		observer:     opts.Observer,

		maxFills:       opts.MaxFills,
		discoveryPages: opts.DiscoveryPages,
	}
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, api string, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, api, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Reintenta errores de red, 429 y 5xx; un 4xx se devuelve sin reintentar.
func (c *Client) doWithRetry(ctx context.Context, api string, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.observe(func(o Observer) { o.RecordRetry(api) })
		}
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		start := time.Now()
		resp, err := fn()
		if err != nil {
			c.observe(func(o Observer) { o.RecordUpstream(api, 0, time.Since(start)) })
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt == c.maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}
		c.observe(func(o Observer) { o.RecordUpstream(api, resp.StatusCode, time.Since(start)) })

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "api", api, "attempt", attempt+1)
			if attempt == c.maxRetries {
				return fmt.Errorf("rate limited after %d retries", c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("%w %d: %s", errClient, resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", c.maxRetries)
}

func (c *Client) observe(fn func(Observer)) {
	if c.observer != nil {
		fn(c.observer)
	}
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
