package backend

import (
	"context"
	"fmt"
	"os"
	"time"

	"cruce/internal/cache"
	"cruce/internal/log"
	"cruce/internal/source"
	"cruce/internal/source/httpapi"
	"cruce/internal/source/memory"
	"cruce/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case HTTPBackend:
		result = f.createHTTPBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheSize > 0 {
		f.wrapCache(ctx, result, config)
	}
	return result, nil
}

func (f *DefaultFactory) createHTTPBackend(config Config) *BackendResult {
	client := httpapi.NewWithConfig(httpapi.Config{
		BaseURL: config.APIBase,
		Timeout: config.APITimeout,
	})

	f.logger.Info("Initialized HTTP backend", "api_base", config.APIBase, "timeout", config.APITimeout)

	return &BackendResult{Source: client}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}

	f.logger.Info("Initialized memory backend", "fixture", config.FixturePath, log.FieldRecords, store.Len())

	return &BackendResult{Source: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.FixturePath != "" {
		if err := f.seed(ctx, repo, config.FixturePath); err != nil {
			repo.Close()
			return nil, err
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

// seed imports the fixture into an empty snapshot. A populated snapshot is
// left untouched.
func (f *DefaultFactory) seed(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	empty, err := repo.Empty(ctx)
	if err != nil {
		return fmt.Errorf("inspect snapshot: %w", err)
	}
	if !empty {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	fx, err := source.ParseFixture(b)
	if err != nil {
		return fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := repo.Import(ctx, fx); err != nil {
		return fmt.Errorf("import fixture: %w", err)
	}

	f.logger.Info("Snapshot seeded from fixture",
		log.FieldOperation, log.OpMigrate,
		"fixture", path,
		log.FieldRecords, len(fx.Contracts))
	return nil
}

func (f *DefaultFactory) wrapCache(ctx context.Context, result *BackendResult, config Config) {
	cached := source.NewCached(result.Source, config.CacheSize, config.CacheTTL)
	manager := cache.NewManager(f.logger)
	cached.Register(manager)
	manager.StartCleanup(ctx, sweepInterval(config.CacheTTL))

	result.Source = cached
	result.Caches = manager

	f.logger.Info("Source cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL)
}

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Second)
}
