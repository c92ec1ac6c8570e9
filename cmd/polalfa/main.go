package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dorimacman/polalfa/config"
	"github.com/dorimacman/polalfa/internal/adapters/httpapi"
	"github.com/dorimacman/polalfa/internal/adapters/notify"
	"github.com/dorimacman/polalfa/internal/adapters/polymarket"
	"github.com/dorimacman/polalfa/internal/application/analyzer"
	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/dorimacman/polalfa/internal/observability"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	analyze := flag.String("analyze", "", "comma-separated wallets to analyze once and exit")
	top := flag.Int("top", 0, "print the top N wallets once and exit")
	cached := flag.Int("cached", 0, "print the top N wallets already in the sqlite cache and exit")
	rangeFlag := flag.String("range", "", "time range: 7d|30d|90d (default from config)")
	offset := flag.Int("offset", 0, "offset for -top")
	details := flag.Bool("details", false, "print per-market breakdown for each wallet")
	maxMarkets := flag.Int("max-markets", 10, "markets shown per wallet with -details")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	rangeArg := cfg.Server.DefaultRange
	if *rangeFlag != "" {
		rangeArg = *rangeFlag
	}
	r, err := domain.ParseRange(rangeArg)
	if err != nil {
		slog.Error("invalid range", "err", err)
		os.Exit(1)
	}

	slog.Info("polalfa starting",
		"config", *configPath,
		"cache", cfg.Cache.Backend,
		"range", r,
		"analyze", *analyze != "",
		"top", *top,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics("polalfa")

	client := polymarket.NewClient(polymarket.Options{
		DataBase:        cfg.API.DataBase,
		GammaBase:       cfg.API.GammaBase,
		DataRatePerSec:  cfg.API.DataRatePerSec,
		GammaRatePerSec: cfg.API.GammaRatePerSec,
		MaxRetries:      cfg.API.MaxRetries,
		Timeout:         cfg.APITimeout(),
		Observer:        metrics,
		MaxFills:        cfg.API.MaxFills,
		DiscoveryPages:  cfg.API.DiscoveryPages,
	})

	cache, err := openCache(ctx, cfg)
	if err != nil {
		slog.Error("failed to open cache", "err", err, "backend", cfg.Cache.Backend)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	svc := analyzer.New(analyzerConfig(cfg), client, client, cache, metrics)
	notifier := notify.NewConsole(*details, *maxMarkets)

	switch {
	case *analyze != "":
		err = runAnalyze(ctx, svc, notifier, parseWallets(*analyze), r)
	case *top > 0:
		err = runTop(ctx, svc, notifier, r, *top, *offset)
	case *cached > 0:
		err = runCached(ctx, cache, notifier, r, *cached)
	default:
		err = serve(ctx, cfg, svc, metrics)
	}
	if err != nil {
		slog.Error("polalfa exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polalfa stopped cleanly")
}

func serve(ctx context.Context, cfg *config.Config, svc *analyzer.Service, metrics *observability.Metrics) error {
	srv, err := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DefaultRange:   cfg.Server.DefaultRange,
		DefaultLimit:   cfg.Server.DefaultLimit,
	}, svc, metrics)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func analyzerConfig(cfg *config.Config) analyzer.Config {
	a := cfg.Analysis
	return analyzer.Config{
		Workers:             a.Workers,
		BatchTimeout:        cfg.BatchTimeout(),
		MaxWallets:          a.MaxWallets,
		MaxLimit:            a.MaxLimit,
		CandidateOversample: a.CandidateOversample,
		MaxCandidates:       a.MaxCandidates,
		Filter: analyzer.FilterConfig{
			MinResolvedMarkets:    a.MinResolvedMarkets,
			MinVolume:             a.MinVolume,
			MaxSingleMarketWeight: a.MaxSingleMarketWeight,
		},
		Score: domain.ScoreParams{
			Z:                 a.Score.Z,
			ConfidenceK:       a.Score.ConfidenceK,
			ConsistencyWeight: a.Score.ConsistencyWeight,
			ROIWeight:         a.Score.ROIWeight,
			EvidenceWeight:    a.Score.EvidenceWeight,
		},
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
