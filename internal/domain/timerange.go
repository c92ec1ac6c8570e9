package domain

import (
	"time"
)

// Range es la ventana de look-back soportada por la API.
type Range string

const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
)

// DefaultRange es el rango que usa el leaderboard si el caller no indica ninguno.
const DefaultRange = Range30d

var rangeDays = map[Range]int{
	Range7d:  7,
	Range30d: 30,
	Range90d: 90,
}

// ParseRange valida el string recibido del caller.
func ParseRange(s string) (Range, error) {
	r := Range(s)
	if _, ok := rangeDays[r]; !ok {
		return "", InvalidInputf("invalid range %q: must be '7d', '30d', or '90d'", s)
	}
	return r, nil
}

// Days devuelve la duración del rango en días (0 si el rango no es válido).
func (r Range) Days() int {
	return rangeDays[r]
}

// Window es el intervalo [Start, End] de timestamps considerado para un rango.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowAt ancla el rango en now. Los fills con timestamp fuera de la ventana se ignoran.
func (r Range) WindowAt(now time.Time) Window {
	now = now.UTC()
	return Window{
		Start: now.AddDate(0, 0, -r.Days()),
		End:   now,
	}
}

// Contains devuelve true si t cae dentro de la ventana (ambos extremos incluidos).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
