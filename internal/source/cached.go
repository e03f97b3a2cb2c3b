package source

import (
	"context"
	"strings"
	"time"

	"cruce/internal/cache"
	"cruce/internal/core"
)

// Cached wraps a Source and memoizes record lookups and suggestions. Rosters
// are memoized per sort key. Errors are never cached.
type Cached struct {
	next        Source
	records     *cache.LRUCache[[]core.ContractRecord]
	suggestions *cache.LRUCache[[]string]
	names       *cache.LRUCache[[]string]
	cross       *cache.LRUCache[[]core.CrossRow]
	conflicts   *cache.LRUCache[[]core.ConflictRow]
}

// NewCached wraps next. Each cache holds up to size entries for ttl.
func NewCached(next Source, size int, ttl time.Duration, opts ...cache.Option) *Cached {
	return &Cached{
		next:        next,
		records:     cache.NewLRUCache[[]core.ContractRecord](size, ttl, opts...),
		suggestions: cache.NewLRUCache[[]string](size, ttl, opts...),
		names:       cache.NewLRUCache[[]string](1, ttl, opts...),
		cross:       cache.NewLRUCache[[]core.CrossRow](2, ttl, opts...),
		conflicts:   cache.NewLRUCache[[]core.ConflictRow](1, ttl, opts...),
	}
}

// Register adds every inner cache to m's sweep.
func (c *Cached) Register(m *cache.Manager) {
	m.Register("records", c.records)
	m.Register("suggestions", c.suggestions)
	m.Register("declarants", c.names)
	m.Register("cross_roster", c.cross)
	m.Register("conflict_roster", c.conflicts)
}

func (c *Cached) ContractsByName(ctx context.Context, name string) ([]core.ContractRecord, error) {
	key := normalizeKey(name)
	if v, ok := c.records.Get(key); ok {
		return cloneRecords(v), nil
	}
	v, err := c.next.ContractsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.records.Set(key, cloneRecords(v))
	return v, nil
}

func (c *Cached) Suggest(ctx context.Context, query string) ([]string, error) {
	key := normalizeKey(query)
	if v, ok := c.suggestions.Get(key); ok {
		return append([]string(nil), v...), nil
	}
	v, err := c.next.Suggest(ctx, query)
	if err != nil {
		return nil, err
	}
	c.suggestions.Set(key, append([]string(nil), v...))
	return v, nil
}

func (c *Cached) ListDeclarants(ctx context.Context) ([]string, error) {
	if v, ok := c.names.Get("all"); ok {
		return append([]string(nil), v...), nil
	}
	v, err := c.next.ListDeclarants(ctx)
	if err != nil {
		return nil, err
	}
	c.names.Set("all", append([]string(nil), v...))
	return v, nil
}

func (c *Cached) CrossRoster(ctx context.Context, key core.SortKey) ([]core.CrossRow, error) {
	if v, ok := c.cross.Get(string(key)); ok {
		return append([]core.CrossRow(nil), v...), nil
	}
	v, err := c.next.CrossRoster(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cross.Set(string(key), append([]core.CrossRow(nil), v...))
	return v, nil
}

func (c *Cached) ConflictRoster(ctx context.Context) ([]core.ConflictRow, error) {
	if v, ok := c.conflicts.Get("all"); ok {
		return append([]core.ConflictRow(nil), v...), nil
	}
	v, err := c.next.ConflictRoster(ctx)
	if err != nil {
		return nil, err
	}
	c.conflicts.Set("all", append([]core.ConflictRow(nil), v...))
	return v, nil
}

// Invalidate drops everything cached.
func (c *Cached) Invalidate() {
	c.records.Purge()
	c.suggestions.Purge()
	c.names.Purge()
	c.cross.Purge()
	c.conflicts.Purge()
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Records are copied shallowly so callers may reorder or flag their slice
// without touching the cached one.
func cloneRecords(in []core.ContractRecord) []core.ContractRecord {
	if in == nil {
		return nil
	}
	return append([]core.ContractRecord(nil), in...)
}
