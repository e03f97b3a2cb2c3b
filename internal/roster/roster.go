// Package roster orders and labels the precomputed declarant aggregate lists.
package roster

import (
	"cmp"
	"slices"
	"strings"

	"cruce/internal/core"
	"cruce/internal/format"
)

// NoDate is shown for a row whose appointment date is missing.
const NoDate = "sin fecha"

// Mode is a roster view.
type Mode int

const (
	All Mode = iota
	Cross
	Conflict
)

// SortCross orders the before/after roster descending by total amount or by
// total contract count. Ties keep their incoming order.
func SortCross(rows []core.CrossRow, key core.SortKey) {
	switch key {
	case core.SortByCount:
		slices.SortStableFunc(rows, func(a, b core.CrossRow) int {
			return cmp.Compare(b.TotalContracts, a.TotalContracts)
		})
	default:
		slices.SortStableFunc(rows, func(a, b core.CrossRow) int {
			return cmp.Compare(b.TotalAmount, a.TotalAmount)
		})
	}
}

// SortConflict orders the conflict roster by total amount, descending.
func SortConflict(rows []core.ConflictRow) {
	slices.SortStableFunc(rows, func(a, b core.ConflictRow) int {
		return cmp.Compare(b.TotalAmount, a.TotalAmount)
	})
}

// AppointmentLabel renders a row's appointment date: the long date when it
// parses, the raw text when it does not, NoDate when it is absent.
func AppointmentLabel(raw *string) string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return NoDate
	}
	if at, ok := core.ParseInstant(*raw); ok {
		return format.LongDate(at)
	}
	return strings.TrimSpace(*raw)
}

// Summary is the one-line caption above a roster.
func Summary(mode Mode, n int) string {
	switch mode {
	case Cross:
		if n == 0 {
			return "No se encontraron casos con contratos antes y después de la toma."
		}
		return format.Count(n) + " casos con contratos antes y después de la toma."
	case Conflict:
		if n == 0 {
			return "No se encontraron casos donde el ente del declarante coincide con la institución compradora."
		}
		return format.Count(n) + " casos con posible conflicto ente / comprador."
	default:
		if n == 0 {
			return "No se encontraron declarantes en el padrón."
		}
		return format.Count(n) + " declarantes en el padrón."
	}
}
