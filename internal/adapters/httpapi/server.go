package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dorimacman/polalfa/internal/application/analyzer"
	"github.com/dorimacman/polalfa/internal/observability"
)

const (
	serviceName    = "PolAlfa API"
	serviceVersion = "1.0.0"

	// DefaultAllowedOrigins permite el front end en Vercel, túneles ngrok y el dev server local.
	DefaultAllowedOrigins = `https://.*\.ngrok\.io|https://.*\.ngrok-free\.app|https://polalfa\.vercel\.app|http://localhost:3000`

	shutdownTimeout = 10 * time.Second
)

// Service es lo que el router necesita de la capa de aplicación.
// analyzer.Service lo implementa.
type Service interface {
	Analyze(ctx context.Context, req analyzer.AnalyzeRequest) (analyzer.AnalyzeResult, error)
	TopWallets(ctx context.Context, req analyzer.TopRequest) (analyzer.TopResult, error)
}

// Config contiene la configuración del servidor HTTP.
type Config struct {
	Addr           string
	AllowedOrigins string // regex de orígenes CORS; vacío usa DefaultAllowedOrigins
	DefaultRange   string
	DefaultLimit   int
}

// Server expone el motor de ranking por HTTP con gin.
type Server struct {
	cfg     Config
	svc     Service
	metrics *observability.Metrics
	engine  *gin.Engine
}

// NewServer construye el router con sus middlewares y rutas.
func NewServer(cfg Config, svc Service, metrics *observability.Metrics) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.DefaultRange == "" {
		cfg.DefaultRange = "30d"
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	origins, err := regexp.Compile("^(?:" + cfg.AllowedOrigins + ")$")
	if err != nil {
		return nil, fmt.Errorf("httpapi.NewServer: allowed origins: %w", err)
	}

	s := &Server{cfg: cfg, svc: svc, metrics: metrics}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(metrics), cors(origins))

	r.GET("/", s.root)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.POST("/analyze-wallets", s.analyzeWallets)
	api.GET("/top-wallets", s.topWallets)

	s.engine = r
	return s, nil
}

// Handler devuelve el http.Handler del router (usado por los tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run sirve HTTP hasta que ctx se cancela y luego hace un shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpapi.Run: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.Run: shutdown: %w", err)
	}
	return nil
}
