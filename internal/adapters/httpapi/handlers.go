package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dorimacman/polalfa/internal/application/analyzer"
	"github.com/dorimacman/polalfa/internal/domain"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"status":  "running",
		"version": serviceVersion,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// analyzeWallets atiende POST /api/analyze-wallets.
// Las wallets que fallan quedan en su posición con métricas en cero y "error".
func (s *Server) analyzeWallets(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, domain.InvalidInputf("invalid request body: %v", err))
		return
	}

	r, err := domain.ParseRange(strings.TrimSpace(body.Range))
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.svc.Analyze(c.Request.Context(), analyzer.AnalyzeRequest{
		Wallets: body.Wallets,
		Range:   r,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := analyzeResponse{Range: string(res.Range), Wallets: make([]walletAnalysis, 0, len(res.Wallets))}
	for _, w := range res.Wallets {
		if w.Err != nil {
			out.Wallets = append(out.Wallets, walletAnalysis{
				Wallet:  w.Wallet,
				Markets: []marketDetail{},
				Error:   publicMessage(w.Err),
			})
			continue
		}
		out.Wallets = append(out.Wallets, toWalletAnalysis(*w.Summary))
	}
	if failed := res.Failed(); len(failed) > 0 {
		out.Detail = fmt.Sprintf("data unavailable for %d wallet(s): %s", len(failed), strings.Join(failed, ", "))
	}
	c.JSON(http.StatusOK, out)
}

// topWallets atiende GET /api/top-wallets?range=&limit=&offset=.
func (s *Server) topWallets(c *gin.Context) {
	r, err := domain.ParseRange(c.DefaultQuery("range", s.cfg.DefaultRange))
	if err != nil {
		writeError(c, err)
		return
	}

	limit, err := intQuery(c, "limit", s.cfg.DefaultLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.svc.TopWallets(c.Request.Context(), analyzer.TopRequest{
		Range:  r,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	wallets := make([]topWallet, 0, len(res.Wallets))
	for _, w := range res.Wallets {
		wallets = append(wallets, toTopWallet(w))
	}
	c.JSON(http.StatusOK, topResponse{
		Range:      string(res.Range),
		Limit:      res.Limit,
		Offset:     res.Offset,
		Candidates: res.Candidates,
		Qualified:  res.Qualified,
		Wallets:    wallets,
	})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidInputf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// writeError traduce la taxonomía de errores del dominio a status HTTP.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"err", err,
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Detail: publicMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage devuelve el texto que ve el cliente. Los fallos internos no exponen detalles.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, domain.ErrDataUnavailable):
		return "upstream data unavailable, try again later"
	default:
		return "internal server error"
	}
}
