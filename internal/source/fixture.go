package source

import (
	"bytes"

	json "github.com/goccy/go-json"

	"cruce/internal/core"
)

// Fixture is a snapshot of the upstream dataset: raw records plus the
// precomputed rosters. On disk it may also be a bare array of records.
type Fixture struct {
	Contracts []core.ContractRecord `json:"contratos"`
	Cross     []core.CrossRow       `json:"cruce"`
	Conflicts []core.ConflictRow    `json:"conflicto"`
}

// ParseFixture decodes either fixture shape.
func ParseFixture(b []byte) (Fixture, error) {
	var fx Fixture
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		err := json.Unmarshal(b, &fx.Contracts)
		return fx, err
	}
	err := json.Unmarshal(b, &fx)
	return fx, err
}
