package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/dorimacman/polalfa/internal/observability"
	"github.com/dorimacman/polalfa/internal/ports"
)

const (
	modeAnalyze = "analyze"
	modeTop     = "top"
)

// Config contiene la configuración del servicio de ranking.
type Config struct {
	Workers             int           // goroutines por batch (0 = NumCPU*2)
	BatchTimeout        time.Duration // plazo total de un batch (0 = sin plazo propio)
	MaxWallets          int           // máximo de wallets en modo analyze
	MaxLimit            int           // tope de limit en modo top-N
	CandidateOversample int           // candidatos descubiertos por cada wallet pedida
	MaxCandidates       int           // tope absoluto de candidatos
	Filter              FilterConfig
	Score               domain.ScoreParams
}

// DefaultConfig devuelve la configuración de producción.
func DefaultConfig() Config {
	return Config{
		Workers:             8,
		BatchTimeout:        60 * time.Second,
		MaxWallets:          10,
		MaxLimit:            100,
		CandidateOversample: 3,
		MaxCandidates:       300,
		Filter:              DefaultFilterConfig(),
		Score:               domain.DefaultScoreParams(),
	}
}

// AnalyzeRequest pide el resumen de una lista explícita de wallets.
type AnalyzeRequest struct {
	Wallets []string
	Range   domain.Range
}

// WalletResult es el resultado de una entrada de la lista pedida.
// Exactamente uno de Summary y Err es no-nil.
type WalletResult struct {
	Wallet  string
	Summary *domain.WalletSummary
	Err     error
}

// AnalyzeResult devuelve un WalletResult por entrada, en el orden pedido.
type AnalyzeResult struct {
	Range   domain.Range
	Wallets []WalletResult
}

// Failed devuelve las direcciones (sin duplicados) cuyo análisis falló.
func (r AnalyzeResult) Failed() []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range r.Wallets {
		if w.Err != nil && !seen[w.Wallet] {
			seen[w.Wallet] = true
			out = append(out, w.Wallet)
		}
	}
	return out
}

// TopRequest pide el leaderboard de un rango.
type TopRequest struct {
	Range  domain.Range
	Limit  int
	Offset int
}

// TopResult es el leaderboard ya ordenado y paginado.
type TopResult struct {
	Range      domain.Range
	Limit      int // limit efectivo tras aplicar el tope
	Offset     int
	Candidates int // wallets descubiertas
	Qualified  int // wallets que pasaron los filtros
	Wallets    []domain.WalletSummary
}

// Service orquesta los dos modos de consulta sobre el pipeline por wallet.
type Service struct {
	cfg        Config
	pipeline   *Pipeline
	discoverer ports.WalletDiscoverer
	cache      ports.SummaryCache
	filter     *Filter
	metrics    *observability.Metrics
	group      singleflight.Group
	now        func() time.Time
}

// New crea un Service con todas las dependencias inyectadas.
// cache y metrics pueden ser nil.
func New(
	cfg Config,
	source ports.TradeSource,
	discoverer ports.WalletDiscoverer,
	cache ports.SummaryCache,
	metrics *observability.Metrics,
) *Service {
	def := DefaultConfig()
	if cfg.MaxWallets <= 0 {
		cfg.MaxWallets = def.MaxWallets
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.CandidateOversample <= 0 {
		cfg.CandidateOversample = def.CandidateOversample
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	return &Service{
		cfg:        cfg,
		pipeline:   NewPipeline(source, cfg.Score, metrics),
		discoverer: discoverer,
		cache:      cache,
		filter:     NewFilter(cfg.Filter),
		metrics:    metrics,
		now:        time.Now,
	}
}

// MaxWallets devuelve el máximo de wallets aceptado en modo analyze.
func (s *Service) MaxWallets() int { return s.cfg.MaxWallets }

// Analyze calcula el resumen de cada wallet pedida y los devuelve en el orden de entrada.
// Un fallo de ingesta de una wallet se registra en su entrada sin abortar las demás;
// cualquier otro error es fatal para la request. Las wallets duplicadas se calculan
// una sola vez y se repiten en cada entrada.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	r, err := domain.ParseRange(string(req.Range))
	if err != nil {
		return AnalyzeResult{}, err
	}
	req.Range = r
	if len(req.Wallets) == 0 {
		return AnalyzeResult{}, domain.InvalidInputf("at least one wallet is required")
	}
	if len(req.Wallets) > s.cfg.MaxWallets {
		return AnalyzeResult{}, domain.InvalidInputf("maximum %d wallets allowed per request", s.cfg.MaxWallets)
	}

	normalized := make([]string, len(req.Wallets))
	unique := make([]string, 0, len(req.Wallets))
	seen := make(map[string]bool, len(req.Wallets))
	for i, raw := range req.Wallets {
		addr, err := domain.NormalizeAddress(raw)
		if err != nil {
			return AnalyzeResult{}, err
		}
		normalized[i] = addr
		if !seen[addr] {
			seen[addr] = true
			unique = append(unique, addr)
		}
	}

	start := time.Now()
	ctx, cancel := s.batchContext(ctx)
	defer cancel()

	now := s.now()
	results := analyzeConcurrent(ctx, unique, s.cfg.Workers, func(ctx context.Context, wallet string) (domain.WalletSummary, error) {
		return s.summarize(ctx, wallet, req.Range, now)
	})

	out := AnalyzeResult{Range: req.Range, Wallets: make([]WalletResult, len(normalized))}
	failed := 0
	for i, addr := range normalized {
		r := results[addr]
		if r.err != nil {
			if !errors.Is(r.err, domain.ErrDataUnavailable) {
				s.metrics.RecordWallet(modeAnalyze, "error")
				return AnalyzeResult{}, fmt.Errorf("analyzer.Analyze: %w", r.err)
			}
			out.Wallets[i] = WalletResult{Wallet: addr, Err: r.err}
			failed++
			continue
		}
		summary := r.summary
		out.Wallets[i] = WalletResult{Wallet: addr, Summary: &summary}
	}
	for _, addr := range unique {
		outcome := "ok"
		if results[addr].err != nil {
			outcome = "data_unavailable"
		}
		s.metrics.RecordWallet(modeAnalyze, outcome)
	}
	s.metrics.RecordBatch(modeAnalyze, time.Since(start))

	slog.Info("analyze batch complete",
		"range", req.Range,
		"requested", len(req.Wallets),
		"unique", len(unique),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return out, nil
}

// TopWallets descubre candidatos activos en el rango, los analiza, descarta los que no
// alcanzan la actividad mínima y devuelve la página pedida del ranking.
// limit > MaxLimit se recorta; limit = 0 devuelve una lista vacía sin llamar upstream.
func (s *Service) TopWallets(ctx context.Context, req TopRequest) (TopResult, error) {
	r, err := domain.ParseRange(string(req.Range))
	if err != nil {
		return TopResult{}, err
	}
	req.Range = r
	if req.Limit < 0 {
		return TopResult{}, domain.InvalidInputf("limit must be >= 0, got %d", req.Limit)
	}
	if req.Offset < 0 {
		return TopResult{}, domain.InvalidInputf("offset must be >= 0, got %d", req.Offset)
	}

	limit := req.Limit
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	out := TopResult{Range: req.Range, Limit: limit, Offset: req.Offset, Wallets: []domain.WalletSummary{}}
	if limit == 0 {
		return out, nil
	}

	start := time.Now()
	ctx, cancel := s.batchContext(ctx)
	defer cancel()

	now := s.now()
	want := (req.Offset + limit) * s.cfg.CandidateOversample
	if want > s.cfg.MaxCandidates {
		want = s.cfg.MaxCandidates
	}

	candidates, err := s.discoverer.ListActiveWallets(ctx, req.Range.WindowAt(now), want)
	if err != nil {
		return TopResult{}, fmt.Errorf("analyzer.TopWallets: discover candidates: %w", err)
	}
	candidates = uniqueAddresses(candidates)
	out.Candidates = len(candidates)
	s.metrics.RecordCandidates(len(candidates))

	results := analyzeConcurrent(ctx, candidates, s.cfg.Workers, func(ctx context.Context, wallet string) (domain.WalletSummary, error) {
		return s.summarize(ctx, wallet, req.Range, now)
	})

	summaries := make([]domain.WalletSummary, 0, len(candidates))
	skipped := 0
	for _, addr := range candidates {
		r := results[addr]
		if r.err != nil {
			if !errors.Is(r.err, domain.ErrDataUnavailable) {
				s.metrics.RecordWallet(modeTop, "error")
				return TopResult{}, fmt.Errorf("analyzer.TopWallets: %w", r.err)
			}
			// En discovery una wallet sin datos se trata como inexistente.
			slog.Debug("candidate skipped", "wallet", domain.ShortAddress(addr), "err", r.err)
			s.metrics.RecordWallet(modeTop, "data_unavailable")
			skipped++
			continue
		}
		s.metrics.RecordWallet(modeTop, "ok")
		summaries = append(summaries, r.summary)
	}

	qualified := s.filter.Apply(summaries)
	domain.RankSummaries(qualified)
	out.Qualified = len(qualified)
	out.Wallets = domain.Paginate(qualified, req.Offset, limit)
	s.metrics.RecordBatch(modeTop, time.Since(start))

	slog.Info("top wallets computed",
		"range", req.Range,
		"candidates", len(candidates),
		"skipped", skipped,
		"qualified", len(qualified),
		"returned", len(out.Wallets),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return out, nil
}

// summarize es el read-through: cache → singleflight → pipeline → cache.
// Solo se cachean resúmenes completos; un error nunca deja una entrada escrita.
func (s *Service) summarize(ctx context.Context, wallet string, r domain.Range, now time.Time) (domain.WalletSummary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, wallet, r)
		if err != nil {
			slog.Warn("cache read failed", "wallet", domain.ShortAddress(wallet), "err", err)
		}
		s.metrics.RecordCacheLookup(ok)
		if ok {
			return cached, nil
		}
	}

	key := wallet + ":" + string(r)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.compute(ctx, wallet, r, now)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return domain.WalletSummary{}, ctx.Err()
	}

	// El cálculo compartido usó el contexto de otra request; si ese se canceló
	// y el nuestro sigue vivo, recalculamos.
	if res.Err != nil && res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
		return s.compute(ctx, wallet, r, now)
	}
	if res.Err != nil {
		return domain.WalletSummary{}, res.Err
	}
	return res.Val.(domain.WalletSummary), nil
}

func (s *Service) compute(ctx context.Context, wallet string, r domain.Range, now time.Time) (domain.WalletSummary, error) {
	summary, err := s.pipeline.Run(ctx, wallet, r, now)
	if err != nil {
		return domain.WalletSummary{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			slog.Warn("cache write failed", "wallet", domain.ShortAddress(wallet), "err", err)
		}
	}
	return summary, nil
}

func (s *Service) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.BatchTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.BatchTimeout)
	}
	return context.WithCancel(ctx)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// uniqueAddresses normaliza y deduplica los candidatos descartando direcciones inválidas.
func uniqueAddresses(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		addr, err := domain.NormalizeAddress(raw)
		if err != nil || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
