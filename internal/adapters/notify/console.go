package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dorimacman/polalfa/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const defaultMaxMarkets = 10

// Console implementa ports.Notifier imprimiendo el leaderboard como tabla.
type Console struct {
	out        io.Writer
	details    bool
	maxMarkets int
}

// NewConsole crea un notificador que escribe a stdout.
// Con details=true imprime además el detalle por mercado de cada wallet.
func NewConsole(details bool, maxMarkets int) *Console {
	return NewConsoleWriter(os.Stdout, details, maxMarkets)
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, details bool, maxMarkets int) *Console {
	if maxMarkets <= 0 {
		maxMarkets = defaultMaxMarkets
	}
	return &Console{out: w, details: details, maxMarkets: maxMarkets}
}

// Notify imprime los resúmenes en el orden recibido.
func (c *Console) Notify(_ context.Context, r domain.Range, summaries []domain.WalletSummary) error {
	now := time.Now().Format("15:04:05")
	if len(summaries) == 0 {
		fmt.Fprintf(c.out, "[%s] no wallets to show for %s\n", now, r)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d wallets, range %s\n", now, len(summaries), r)
	c.printLeaderboard(summaries)

	if c.details {
		for _, s := range summaries {
			c.printMarkets(s)
		}
	}
	return nil
}

// printLeaderboard imprime una fila por wallet.
func (c *Console) printLeaderboard(summaries []domain.WalletSummary) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Wallet", "Score", "Hit rate", "ROI", "PnL", "Volume", "Resolved", "Won", "Open", "Last trade")

	for i, s := range summaries {
		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.ShortAddress(s.Wallet),
			fmt.Sprintf("%.4f", s.TraderScore),
			fmt.Sprintf("%.1f%%", s.HitRate*100),
			fmt.Sprintf("%+.1f%%", s.ROI*100),
			fmt.Sprintf("$%.2f", s.RealizedPnL),
			fmt.Sprintf("$%.2f", s.TotalVolume),
			fmt.Sprintf("%d", s.ResolvedMarkets),
			fmt.Sprintf("%d", s.ProfitableMarkets),
			fmt.Sprintf("%d", s.OpenPositions),
			formatTime(s.LastTradeTime),
		)
	}

	table.Render()
	fmt.Fprintln(c.out, "  Score = Wilson(hit rate) + ROI acotado + evidencia, todo ∈ [0,1]")
}

// printMarkets imprime el detalle por (market, outcome) de una wallet.
func (c *Console) printMarkets(s domain.WalletSummary) {
	fmt.Fprintf(c.out, "\n%s: %d markets", s.Wallet, len(s.Markets))
	if s.RejectedFills > 0 {
		fmt.Fprintf(c.out, " (%d malformed fills excluded)", s.RejectedFills)
	}
	fmt.Fprintln(c.out)
	if len(s.Markets) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Outcome", "Status", "Stake", "Entry", "Exit", "PnL")

	for i, m := range s.Markets {
		if i >= c.maxMarkets {
			break
		}
		table.Append(
			domain.TruncateTitle(m.Title, m.MarketID, 40),
			m.Outcome,
			marketStatus(m),
			fmt.Sprintf("$%.2f", m.Stake),
			fmt.Sprintf("%.3f", m.EntryPrice),
			formatPrice(m.ExitPrice),
			fmt.Sprintf("$%+.2f", m.PnL),
		)
	}
	table.Render()

	if hidden := len(s.Markets) - c.maxMarkets; hidden > 0 {
		fmt.Fprintf(c.out, "  ... %d more\n", hidden)
	}
}

func marketStatus(m domain.MarketDetail) string {
	switch {
	case !m.Resolved:
		return "open"
	case m.PnL > 0:
		return "won"
	default:
		return "lost"
	}
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *p)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
