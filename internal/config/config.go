package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/rasterandstate/majestic-canon/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates the documents and databases the core reads and writes.
type Paths struct {
	TablesFile    string `toml:"tables_file"`
	GS1Registry   string `toml:"gs1_registry"`
	RedirectTable string `toml:"redirect_table"`
	CatalogDB     string `toml:"catalog_db"`
	LogDir        string `toml:"log_dir"`
}

// Identity controls hash derivation.
type Identity struct {
	// HashVersion is the version used for new records. Defaults to the
	// current version; older versions are only for fixture verification.
	HashVersion int `toml:"hash_version"`
	// GS1Fallback resolves the publisher from the UPC company prefix when a
	// record names no publisher.
	GS1Fallback bool `toml:"gs1_fallback"`
}

// Validation controls how validation results are treated.
type Validation struct {
	// AdvisoryBlocking promotes cross-record advisories to blocking failures.
	AdvisoryBlocking bool `toml:"advisory_blocking"`
	// Workers bounds batch parallelism. Zero means one per CPU.
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for majestic.
//
// Configuration sections:
//   - Paths: tables, GS1 registry, redirect table, catalog, logs
//   - Identity: hash version and GS1 publisher fallback
//   - Validation: advisory policy and batch parallelism
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Identity   Identity   `toml:"identity"`
	Validation Validation `toml:"validation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath is the per-user config file, expanded.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the config at path, or the first file found on the search
// path when path is empty, then fills defaults, expands paths and
// validates. It also returns the file it settled on and whether that file
// existed; a missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects keys that do not map onto Config.
func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath returns the file to load and whether it exists. An
// explicit path is used as given; otherwise the user config and then
// ./majestic.toml are tried, falling back to the user config location.
func resolveConfigPath(path string) (string, bool, error) {
	candidates := []string{defaultConfigPath, projectConfigPath}
	if path != "" {
		candidates = []string{path}
	}

	var first string
	for _, candidate := range candidates {
		expanded, err := ExpandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the parent directories of every writable path.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.RedirectTable), filepath.Dir(c.Paths.CatalogDB)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ against the home directory and returns
// an absolute, cleaned path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(p, "~"); ok && (rest == "" || os.IsPathSeparator(rest[0])) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = home + rest
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
