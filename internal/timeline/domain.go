package timeline

import "cruce/internal/core"

// MinPadding is the smallest margin added to each side of the plot domain.
const MinPadding = 15 * core.Day

// Domain is the padded plot range.
type Domain struct {
	Min     core.Instant
	Max     core.Instant
	Padding core.Instant
}

// NewDomain computes the union of all point and marker instants and pads it
// on both sides by the larger of MinPadding and 5% of the raw span. It
// returns false when there is nothing to plot.
func NewDomain(pts Points, markers []core.Instant) (Domain, bool) {
	var (
		lo, hi core.Instant
		seen   bool
	)
	observe := func(at core.Instant) {
		if !seen {
			lo, hi, seen = at, at, true
			return
		}
		lo = min(lo, at)
		hi = max(hi, at)
	}
	for _, p := range pts.Start {
		observe(p.At)
	}
	for _, p := range pts.End {
		observe(p.At)
	}
	for _, at := range markers {
		observe(at)
	}
	if !seen {
		return Domain{}, false
	}
	pad := Padding(hi - lo)
	return Domain{Min: lo - pad, Max: hi + pad, Padding: pad}, true
}

// Padding returns the margin for a raw span: 5% of it, at least MinPadding.
func Padding(span core.Instant) core.Instant {
	return max(MinPadding, span/20)
}
