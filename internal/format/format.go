// Package format renders dates and amounts the way the es-MX front end shows
// them.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cruce/internal/core"
)

// Locale selects the month name set used in labels.
type Locale int

const (
	Spanish Locale = iota
	English
)

var (
	shortMonths = map[Locale][12]string{
		Spanish: {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		English: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	}
	longMonths = [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}

	printer = message.NewPrinter(language.MustParse("es-MX"))
)

// MonthYear returns the abbreviated month and year of t, e.g. "ene 2023".
func MonthYear(t time.Time, l Locale) string {
	names, ok := shortMonths[l]
	if !ok {
		names = shortMonths[Spanish]
	}
	return fmt.Sprintf("%s %d", names[t.Month()-1], t.Year())
}

// LongDate returns the long Spanish form of an instant, e.g.
// "05 de marzo de 2021".
func LongDate(i core.Instant) string {
	t := i.Time()
	return fmt.Sprintf("%02d de %s de %d", t.Day(), longMonths[t.Month()-1], t.Year())
}

// Money formats an amount in pesos with two decimals and thousands grouping.
// Non-finite values render as an em placeholder.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	if v < 0 {
		return "-$" + printer.Sprintf("%.2f", -v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}

// Count formats an integer with thousands grouping.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// Humanize turns an upstream tag like "estatal_municipal" into
// "Estatal Municipal". Only the first letter of each word changes.
func Humanize(tag string) string {
	words := strings.Fields(strings.ReplaceAll(tag, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
