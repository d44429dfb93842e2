package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/rasterandstate/majestic-canon/internal/config"
)

// ConfigOption adjusts a test config after its paths are laid out.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns a default config whose every path lives under a fresh
// temp directory, with parent directories already created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		TablesFile:    filepath.Join(root, "tables.yaml"),
		GS1Registry:   filepath.Join(root, "gs1_prefixes.yaml"),
		RedirectTable: filepath.Join(root, "data", "redirects.json"),
		CatalogDB:     filepath.Join(root, "data", "catalog.db"),
		LogDir:        filepath.Join(root, "logs"),
	}
	for _, opt := range opts {
		opt(t, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithTables writes doc as the curated tables file.
func WithTables(doc string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		WriteFile(t, cfg.Paths.TablesFile, doc)
	}
}

// WithGS1Registry writes doc as the GS1 prefix registry.
func WithGS1Registry(doc string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		WriteFile(t, cfg.Paths.GS1Registry, doc)
	}
}

func WithHashVersion(v int) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Identity.HashVersion = v
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TablesFile)
}
