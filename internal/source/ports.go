// Package source defines where declarant records and the precomputed rosters
// come from.
package source

import (
	"context"
	"errors"

	"cruce/internal/core"
)

// Ports for outbound adapters.
type (
	DeclarantReader interface {
		// ContractsByName returns every record of the declarant whose name
		// matches exactly, ignoring case. No match is an empty slice, not an
		// error.
		ContractsByName(ctx context.Context, name string) ([]core.ContractRecord, error)
	}

	SuggestionReader interface {
		// Suggest returns declarant names containing the partial query.
		Suggest(ctx context.Context, query string) ([]string, error)
	}

	RosterReader interface {
		ListDeclarants(ctx context.Context) ([]string, error)
		CrossRoster(ctx context.Context, key core.SortKey) ([]core.CrossRow, error)
		ConflictRoster(ctx context.Context) ([]core.ConflictRow, error)
	}

	// Source is everything the view needs.
	Source interface {
		DeclarantReader
		SuggestionReader
		RosterReader
	}
)

// MinSuggestLength is the shortest query that triggers suggestions.
const MinSuggestLength = 2

// MaxSuggestions caps the local adapters' suggestion lists.
const MaxSuggestions = 20

var (
	ErrUnavailable = errors.New("data source unavailable")
	ErrNotReady    = errors.New("data source not ready")
)
