package timeline

import (
	"slices"

	"cruce/internal/core"
)

// AppointmentMarkers returns every distinct appointment instant across the
// records, ascending.
func AppointmentMarkers(records []core.ContractRecord) []core.Instant {
	var out []core.Instant
	for _, rec := range records {
		if at, ok := rec.AppointmentInstant(); ok {
			out = append(out, at)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
