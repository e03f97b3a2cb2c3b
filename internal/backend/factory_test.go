package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cruce/internal/config"
	"cruce/internal/source"
	"cruce/internal/source/httpapi"
)

const fixtureJSON = `{
	"contratos": [
		{"nombreDeclarante": "Ana Pérez", "montoContrato": "1,500.00", "fechaInicioContrato": "2021-03-01"},
		{"nombreDeclarante": "Beto Ruiz", "montoContrato": 900}
	],
	"cruce": [{"nombreDeclarante": "Ana Pérez", "totalContratos": 1, "montoTotal": 1500}],
	"conflicto": []
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "http", config: Config{Type: HTTPBackend, APIBase: "http://localhost:8000"}},
		{name: "http without base", config: Config{Type: HTTPBackend}, wantErr: true},
		{name: "memory without fixture", config: Config{Type: MemoryBackend}, wantErr: true},
		{name: "sqlite without fixture", config: Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "unknown", config: Config{Type: "sheets"}, wantErr: true},
		{name: "negative cache", config: Config{Type: HTTPBackend, APIBase: "http://x", CacheSize: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		APIBase:      "http://x",
		SQLiteDBPath: "snap.db",
		CacheSize:    16,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "snap.db" || cfg.CacheSize != 16 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	fixture := writeFixture(t)

	tests := []struct {
		name   string
		config Config
		cached bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend, FixturePath: fixture}},
		{
			name:   "memory cached",
			config: Config{Type: MemoryBackend, FixturePath: fixture, CacheSize: 8, CacheTTL: time.Minute},
			cached: true,
		},
		{
			name: "sqlite seeded from fixture",
			config: Config{
				Type:         SQLiteBackend,
				FixturePath:  fixture,
				SQLiteDBPath: filepath.Join(t.TempDir(), "snap.db"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer result.Close()

			if _, ok := result.Source.(*source.Cached); ok != tt.cached {
				t.Errorf("cached = %v, want %v", ok, tt.cached)
			}
			if result.Ready != nil {
				if err := result.Ready(ctx); err != nil {
					t.Errorf("Ready() error = %v", err)
				}
			}

			records, err := result.Source.ContractsByName(ctx, "ana pérez")
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if v, ok := records[0].Amount.Get(); !ok || v != 1500 {
				t.Errorf("amount = %v (%v), want 1500", v, ok)
			}

			names, err := result.Source.ListDeclarants(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(names) != 2 {
				t.Errorf("expected 2 declarants, got %v", names)
			}
		})
	}
}

func TestCreateBackendHTTP(t *testing.T) {
	result, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:       HTTPBackend,
		APIBase:    "http://127.0.0.1:8000",
		APITimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer result.Close()

	if _, ok := result.Source.(*httpapi.Client); !ok {
		t.Errorf("expected *httpapi.Client, got %T", result.Source)
	}
}

func TestCreateBackendKeepsPopulatedSnapshot(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "snap.db")
	fixture := writeFixture(t)
	factory := NewFactory(nil)

	first, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, FixturePath: fixture})
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	if err := os.WriteFile(fixture, []byte(`[{"nombreDeclarante": "Otro"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, FixturePath: fixture})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	names, err := second.Source.ListDeclarants(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("populated snapshot was reseeded: %v", names)
	}
}
