package timeline

import (
	"iter"
	"time"

	"cruce/internal/core"
	"cruce/internal/format"
)

// MonthBand is the half-open calendar month [Start, End).
type MonthBand struct {
	Start core.Instant `json:"start"`
	End   core.Instant `json:"end"`
	Label string       `json:"label"`
	Index int          `json:"index"`
}

// Shaded reports whether the band is drawn with a background, which is every
// other band starting at the first.
func (b MonthBand) Shaded() bool {
	return b.Index%2 == 0
}

type bandOptions struct {
	locale format.Locale
}

// BandOption configures MonthBands.
type BandOption func(*bandOptions)

// WithLocale selects the label language. Spanish is the default.
func WithLocale(l format.Locale) BandOption {
	return func(o *bandOptions) { o.locale = l }
}

// MonthBands yields one band per calendar month from the month containing lo
// through the month containing hi, inclusive. Months are computed in UTC. The
// sequence is finite and can be ranged over any number of times.
func MonthBands(lo, hi core.Instant, opts ...BandOption) iter.Seq[MonthBand] {
	o := bandOptions{locale: format.Spanish}
	for _, opt := range opts {
		opt(&o)
	}
	first := monthStart(lo.Time())
	last := monthStart(hi.Time())
	return func(yield func(MonthBand) bool) {
		i := 0
		for cur := first; !cur.After(last); cur = cur.AddDate(0, 1, 0) {
			b := MonthBand{
				Start: core.InstantOf(cur),
				End:   core.InstantOf(cur.AddDate(0, 1, 0)),
				Label: format.MonthYear(cur, o.locale),
				Index: i,
			}
			if !yield(b) {
				return
			}
			i++
		}
	}
}

// Bands is MonthBands over a domain.
func Bands(d Domain, opts ...BandOption) iter.Seq[MonthBand] {
	return MonthBands(d.Min, d.Max, opts...)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
