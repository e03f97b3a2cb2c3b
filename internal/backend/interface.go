package backend

import (
	"context"
	"time"

	"cruce/internal/cache"
	"cruce/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can answer requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the source and its lifecycle hooks.
type BackendResult struct {
	Source  source.Source
	Caches  *cache.Manager
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Close stops the cache sweeper and runs the cleanup hook.
func (r *BackendResult) Close() error {
	if r.Caches != nil {
		r.Caches.Stop()
	}
	if r.Cleanup != nil {
		return r.Cleanup()
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// HTTP specific
	APIBase    string
	APITimeout time.Duration

	// Memory and SQLite seed
	FixturePath string

	// SQLite specific
	SQLiteDBPath string

	// A zero CacheSize disables the cache.
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	HTTPBackend   BackendType = "http"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case HTTPBackend, MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
