// Package conflict flags contracts bought by the declarant's own public
// entity.
package conflict

import (
	"strings"

	"cruce/internal/core"
)

// Result summarizes the conflict flags of one declarant's records.
type Result struct {
	HasConflict      bool   `json:"hasConflict"`
	CoincidentEntity string `json:"coincidentEntity,omitempty"`
	Flagged          int    `json:"flagged"`
}

// Detect scans records in their given order. The coincident entity is the
// buying institution of the first flagged record; later flagged records only
// add to the count, even when they name a different institution.
func Detect(records []core.ContractRecord) Result {
	var r Result
	for _, rec := range records {
		if !rec.SameEntity {
			continue
		}
		if !r.HasConflict {
			r.HasConflict = true
			r.CoincidentEntity = rec.BuyingInstitution
		}
		r.Flagged++
	}
	return r
}

// Count returns the number of flagged records.
func Count(records []core.ContractRecord) int {
	return Detect(records).Flagged
}

// SameEntity reports whether a declarant's public entity textually matches a
// contract's buying institution: trimmed, case-insensitive equality. An empty
// entity never matches.
func SameEntity(entity, buyer string) bool {
	e := strings.ToLower(strings.TrimSpace(entity))
	if e == "" {
		return false
	}
	return e == strings.ToLower(strings.TrimSpace(buyer))
}

// Derive sets the same-entity flag on records that lack it, using the
// record's own entity and buyer. Records already flagged are left alone.
func Derive(records []core.ContractRecord) {
	for i := range records {
		if !records[i].SameEntity {
			records[i].SameEntity = SameEntity(records[i].PublicEntity, records[i].BuyingInstitution)
		}
	}
}
