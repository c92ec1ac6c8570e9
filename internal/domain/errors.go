package domain

import (
	"errors"
	"fmt"
)

// Taxonomía de errores del motor. Los callers usan errors.Is sobre estos sentinels.
var (
	// ErrInvalidInput: dirección malformada, lista vacía, rango o límite fuera de rango.
	// Se rechaza antes de cualquier ingesta y nunca se reintenta.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataUnavailable: la fuente upstream no respondió o nos limitó tras agotar los retries.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedFill: violación de calidad de datos en un fill (precio fuera de [0,1], etc).
	ErrMalformedFill = errors.New("malformed fill")
)

// WalletError asocia un error a la wallet que lo produjo.
// En modo analyze el caller necesita saber qué wallet falló.
type WalletError struct {
	Wallet string
	Err    error
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet %s: %v", e.Wallet, e.Err)
}

func (e *WalletError) Unwrap() error { return e.Err }

// FillError describe un fill rechazado durante la reconstrucción.
type FillError struct {
	Fill   Fill
	Reason string
}

func (e *FillError) Error() string {
	return fmt.Sprintf("fill %s (market %s): %s", e.Fill.ID, e.Fill.MarketID, e.Reason)
}

func (e *FillError) Unwrap() error { return ErrMalformedFill }

// InvalidInputf construye un error ErrInvalidInput con mensaje legible para el usuario.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
