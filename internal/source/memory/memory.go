// Package memory serves declarant data from in-process slices, typically
// loaded from a JSON fixture.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"cruce/internal/conflict"
	"cruce/internal/core"
	"cruce/internal/roster"
	"cruce/internal/source"
)

type Store struct {
	mu        sync.RWMutex
	records   []core.ContractRecord
	cross     []core.CrossRow
	conflicts []core.ConflictRow
}

var _ source.Source = (*Store)(nil)

// New builds a store. Records missing the same-entity flag get it derived
// from their entity and buyer.
func New(records []core.ContractRecord, cross []core.CrossRow, conflicts []core.ConflictRow) *Store {
	records = slices.Clone(records)
	conflict.Derive(records)
	return &Store{
		records:   records,
		cross:     slices.Clone(cross),
		conflicts: slices.Clone(conflicts),
	}
}

// NewFromFile loads a source.Fixture from path.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: read fixture: %w", err)
	}
	fx, err := source.ParseFixture(b)
	if err != nil {
		return nil, fmt.Errorf("memory: %s: %w", path, err)
	}
	return New(fx.Contracts, fx.Cross, fx.Conflicts), nil
}

func (s *Store) ContractsByName(_ context.Context, name string) ([]core.ContractRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.ContractRecord{}
	for _, r := range s.records {
		if strings.EqualFold(strings.TrimSpace(r.DeclarantName), name) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Suggest lists sorted names containing query that have an appointment date.
func (s *Store) Suggest(_ context.Context, query string) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < source.MinSuggestLength {
		return []string{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, r := range s.records {
		if r.AppointmentDate == nil || strings.TrimSpace(*r.AppointmentDate) == "" {
			continue
		}
		if strings.Contains(strings.ToLower(r.DeclarantName), q) {
			seen[r.DeclarantName] = struct{}{}
		}
		if len(seen) >= source.MaxSuggestions {
			break
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) ListDeclarants(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, r := range s.records {
		if n := strings.TrimSpace(r.DeclarantName); n != "" {
			seen[n] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) CrossRoster(_ context.Context, key core.SortKey) ([]core.CrossRow, error) {
	s.mu.RLock()
	rows := slices.Clone(s.cross)
	s.mu.RUnlock()
	if rows == nil {
		rows = []core.CrossRow{}
	}
	roster.SortCross(rows, key)
	return rows, nil
}

func (s *Store) ConflictRoster(context.Context) ([]core.ConflictRow, error) {
	s.mu.RLock()
	rows := slices.Clone(s.conflicts)
	s.mu.RUnlock()
	if rows == nil {
		rows = []core.ConflictRow{}
	}
	roster.SortConflict(rows)
	return rows, nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
