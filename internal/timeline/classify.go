package timeline

import "cruce/internal/core"

// Phase places a contract relative to the declarant's appointment.
type Phase int

const (
	Undetermined Phase = iota
	Before
	After
	Spanning
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "antes"
	case After:
		return "despues"
	case Spanning:
		return "durante"
	default:
		return "indeterminado"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Classify places one record against its own appointment date. With both
// contract dates it is Before when the contract ended before the appointment
// and After when it started after it. With a single date that date decides.
// Anything touching or straddling the appointment is Spanning.
func Classify(rec core.ContractRecord) Phase {
	toma, ok := rec.AppointmentInstant()
	if !ok {
		return Undetermined
	}
	start, hasStart := rec.StartInstant()
	end, hasEnd := rec.EndInstant()
	switch {
	case hasStart && hasEnd:
		if end < toma {
			return Before
		}
		if start > toma {
			return After
		}
		return Spanning
	case hasStart:
		return compare(start, toma)
	case hasEnd:
		return compare(end, toma)
	default:
		return Undetermined
	}
}

func compare(at, toma core.Instant) Phase {
	switch {
	case at < toma:
		return Before
	case at > toma:
		return After
	default:
		return Spanning
	}
}

// PhaseSummary counts records per phase.
type PhaseSummary struct {
	Total        int `json:"total"`
	Before       int `json:"antes"`
	After        int `json:"despues"`
	Spanning     int `json:"durante"`
	Undetermined int `json:"indeterminado"`
}

// Summarize classifies every record. Amounts are not considered.
func Summarize(records []core.ContractRecord) PhaseSummary {
	s := PhaseSummary{Total: len(records)}
	for _, rec := range records {
		switch Classify(rec) {
		case Before:
			s.Before++
		case After:
			s.After++
		case Spanning:
			s.Spanning++
		default:
			s.Undetermined++
		}
	}
	return s
}
