// Package timeline projects one declarant's contract records onto a time
// axis: plottable points, appointment markers, the padded plot domain, the
// calendar-month background bands and a before/after classification.
package timeline

import "cruce/internal/core"

// Point is a plottable (instant, amount) projection of a contract record. The
// record is shared with the caller and must not be mutated.
type Point struct {
	At     core.Instant
	Amount float64
	Record *core.ContractRecord
}

// Points holds the start-date and end-date series in record order.
type Points struct {
	Start []Point
	End   []Point
}

// Len returns the total number of points in both series.
func (p Points) Len() int {
	return len(p.Start) + len(p.End)
}

// ExtractPoints filters records with a valid amount and projects each parseable
// start date and end date into its own series. Start and end are independent:
// a record contributes to either, both or neither.
func ExtractPoints(records []core.ContractRecord) Points {
	var pts Points
	for i := range records {
		rec := &records[i]
		amount, ok := rec.ValidAmount()
		if !ok {
			continue
		}
		if at, ok := rec.StartInstant(); ok {
			pts.Start = append(pts.Start, Point{At: at, Amount: amount, Record: rec})
		}
		if at, ok := rec.EndInstant(); ok {
			pts.End = append(pts.End, Point{At: at, Amount: amount, Record: rec})
		}
	}
	return pts
}
