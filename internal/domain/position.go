package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Direction es el sentido de la exposición de un lote.
type Direction int8

const (
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// PositionStatus indica cómo quedó fijado (o no) el PnL de una posición.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "open"
	PositionExited  PositionStatus = "exited"  // tamaño neto volvió a cero operando
	PositionSettled PositionStatus = "settled" // el mercado resolvió con tamaño abierto
)

// Position es una tenencia neta reconstruida de una wallet en un (market, outcome)
// durante un ciclo entrada/salida. Una vez cerrada es inmutable.
type Position struct {
	Wallet       string
	MarketID     string
	OutcomeToken string
	Outcome      string
	Direction    Direction
	Status       PositionStatus

	OpenedAt   time.Time
	ClosedAt   time.Time // cero mientras está abierta
	LastFillAt time.Time
	Fills      int

	Size       float64 // tamaño total abierto por los fills de entrada
	OpenSize   float64 // tamaño todavía abierto (0 si cerrada)
	EntryPrice float64 // VWAP de los fills de entrada
	Stake      float64 // notional de entrada: capital comprometido en el lote
	NetStake   float64 // buy notional − sell notional

	ExitPrice   *float64 // nil mientras está abierta
	RealizedPnL *float64 // nil mientras está abierta
}

// IsClosed devuelve true si el PnL de la posición ya es definitivo.
func (p Position) IsClosed() bool {
	return p.Status != PositionOpen
}

// PnL devuelve el PnL realizado, 0 si la posición sigue abierta.
func (p Position) PnL() float64 {
	if p.RealizedPnL == nil {
		return 0
	}
	return *p.RealizedPnL
}

// Reconstruction es el resultado de reconstruir las posiciones de una wallet.
type Reconstruction struct {
	Positions []Position
	Fills     []Fill // fills válidos, ordenados por timestamp
	Rejected  []*FillError
}

// Reconstruct agrupa los fills por (market, outcome) y los convierte en posiciones.
//
// Cada fill mueve el tamaño neto firmado del lote abierto. Un fill que lleva el tamaño
// a cero (o lo cruza) cierra el lote; si lo cruza, la parte sobrante abre un lote nuevo
// en sentido contrario al mismo precio. Si el mercado resolvió con tamaño abierto, el
// remanente se liquida a 1.0 (outcome ganador) o 0.0 en el timestamp de resolución.
//
// Los fills inválidos se excluyen y se devuelven en Rejected; nunca se corrigen.
// El slice de entrada no se modifica.
func Reconstruct(fills []Fill, markets map[string]Market) Reconstruction {
	var res Reconstruction

	valid := make([]Fill, 0, len(fills))
	for _, f := range fills {
		if reason := validateFill(f, markets); reason != "" {
			res.Rejected = append(res.Rejected, &FillError{Fill: f, Reason: reason})
			continue
		}
		valid = append(valid, f)
	}
	SortFills(valid)
	res.Fills = valid

	groups := make(map[PositionKey][]Fill)
	var keys []PositionKey
	for _, f := range valid {
		k := f.PositionKey()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], f)
	}

	for _, k := range keys {
		market, ok := markets[k.MarketID]
		if !ok {
			market = UnknownMarket(k.MarketID)
		}
		res.Positions = append(res.Positions, reconstructKey(groups[k], market)...)
	}

	sort.SliceStable(res.Positions, func(i, j int) bool {
		a, b := res.Positions[i], res.Positions[j]
		if !a.OpenedAt.Equal(b.OpenedAt) {
			return a.OpenedAt.Before(b.OpenedAt)
		}
		if a.MarketID != b.MarketID {
			return a.MarketID < b.MarketID
		}
		return a.OutcomeToken+a.Outcome < b.OutcomeToken+b.Outcome
	})

	return res
}

// validateFill devuelve el motivo de rechazo, o "" si el fill es válido.
func validateFill(f Fill, markets map[string]Market) string {
	switch {
	case f.MarketID == "":
		return "missing market id"
	case f.OutcomeToken == "" && f.Outcome == "":
		return "missing outcome"
	case f.Side != SideBuy && f.Side != SideSell:
		return fmt.Sprintf("unknown side %q", f.Side)
	case math.IsNaN(f.Price) || f.Price < 0 || f.Price > 1:
		return fmt.Sprintf("price %v outside [0,1]", f.Price)
	case math.IsNaN(f.Size) || math.IsInf(f.Size, 0) || f.Size <= 0:
		return fmt.Sprintf("non-positive size %v", f.Size)
	case f.Timestamp.IsZero():
		return "missing timestamp"
	}
	if m, ok := markets[f.MarketID]; ok && m.IsResolved() && !m.ResolvedAt.IsZero() && f.Timestamp.After(m.ResolvedAt) {
		return "fill after market resolution"
	}
	return ""
}

// lot acumula un ciclo entrada/salida en aritmética decimal exacta.
type lot struct {
	dir        Direction
	open       decimal.Decimal // tamaño abierto (valor absoluto)
	openedQty  decimal.Decimal
	openValue  decimal.Decimal // notional de los fills de entrada
	closedQty  decimal.Decimal
	closeValue decimal.Decimal // notional de cierre (fills + liquidación)
	buyValue   decimal.Decimal
	sellValue  decimal.Decimal
	openedAt   time.Time
	lastFillAt time.Time
	fills      int
}

func newLot(dir Direction, at time.Time) *lot {
	return &lot{dir: dir, openedAt: at}
}

func (l *lot) touch(f Fill) {
	l.fills++
	l.lastFillAt = f.Timestamp
}

func (l *lot) addFlow(side Side, notional decimal.Decimal) {
	if side == SideBuy {
		l.buyValue = l.buyValue.Add(notional)
	} else {
		l.sellValue = l.sellValue.Add(notional)
	}
}

func (l *lot) increase(f Fill, qty, price decimal.Decimal) {
	notional := qty.Mul(price)
	l.open = l.open.Add(qty)
	l.openedQty = l.openedQty.Add(qty)
	l.openValue = l.openValue.Add(notional)
	l.addFlow(f.Side, notional)
	l.touch(f)
}

func (l *lot) reduce(f Fill, qty, price decimal.Decimal) {
	notional := qty.Mul(price)
	l.open = l.open.Sub(qty)
	l.closedQty = l.closedQty.Add(qty)
	l.closeValue = l.closeValue.Add(notional)
	l.addFlow(f.Side, notional)
	l.touch(f)
}

// reconstructKey procesa los fills ordenados de un único (market, outcome).
func reconstructKey(fills []Fill, market Market) []Position {
	var (
		out []Position
		cur *lot
	)
	first := fills[0]

	for _, f := range fills {
		qty := decimal.NewFromFloat(f.Size)
		price := decimal.NewFromFloat(f.Price)
		dir := Long
		if f.Side == SideSell {
			dir = Short
		}

		if cur == nil {
			cur = newLot(dir, f.Timestamp)
		}
		if cur.dir == dir {
			cur.increase(f, qty, price)
			continue
		}

		closing := decimal.Min(qty, cur.open)
		cur.reduce(f, closing, price)
		if cur.open.IsZero() {
			out = append(out, cur.finish(first, PositionExited, f.Timestamp))
			cur = nil
		}

		if rest := qty.Sub(closing); rest.IsPositive() {
			cur = newLot(dir, f.Timestamp)
			cur.increase(f, rest, price)
		}
	}

	if cur != nil {
		if market.IsResolved() {
			settle := decimal.NewFromFloat(market.SettlementPrice(first.OutcomeToken, first.Outcome))
			cur.closedQty = cur.closedQty.Add(cur.open)
			cur.closeValue = cur.closeValue.Add(cur.open.Mul(settle))
			cur.open = decimal.Zero
			closedAt := market.ResolvedAt
			if closedAt.IsZero() {
				closedAt = cur.lastFillAt
			}
			out = append(out, cur.finish(first, PositionSettled, closedAt))
		} else {
			out = append(out, cur.finish(first, PositionOpen, time.Time{}))
		}
	}

	return out
}

// finish congela el lote en una Position.
func (l *lot) finish(ref Fill, status PositionStatus, closedAt time.Time) Position {
	p := Position{
		Wallet:       ref.Wallet,
		MarketID:     ref.MarketID,
		OutcomeToken: ref.OutcomeToken,
		Outcome:      ref.Outcome,
		Direction:    l.dir,
		Status:       status,
		OpenedAt:     l.openedAt,
		ClosedAt:     closedAt,
		LastFillAt:   l.lastFillAt,
		Fills:        l.fills,
		Size:         l.openedQty.InexactFloat64(),
		OpenSize:     l.open.InexactFloat64(),
		Stake:        l.openValue.InexactFloat64(),
		NetStake:     l.buyValue.Sub(l.sellValue).InexactFloat64(),
	}
	if l.openedQty.IsPositive() {
		p.EntryPrice = l.openValue.Div(l.openedQty).InexactFloat64()
	}

	if status == PositionOpen {
		return p
	}

	exit := 0.0
	if l.closedQty.IsPositive() {
		exit = l.closeValue.Div(l.closedQty).InexactFloat64()
	}
	// PnL = flujo de cierre − flujo de entrada, con signo según el sentido del lote.
	pnl := l.closeValue.Sub(l.openValue)
	if l.dir == Short {
		pnl = pnl.Neg()
	}
	pnlF := pnl.InexactFloat64()
	p.ExitPrice = &exit
	p.RealizedPnL = &pnlF
	return p
}
