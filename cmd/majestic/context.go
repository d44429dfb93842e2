package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/config"
	"github.com/rasterandstate/majestic-canon/internal/gs1"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/logging"
	"github.com/rasterandstate/majestic-canon/internal/pipeline"
	"github.com/rasterandstate/majestic-canon/internal/redirect"
	"github.com/rasterandstate/majestic-canon/internal/tables"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	runID string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
		runID:       uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// runContext tags the command's context with the invocation run id.
func (c *commandContext) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithRunID(ctx, c.runID)
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger setup failed, continuing without logs: %v\n", err)
			logger = logging.NewNop()
		}
		c.logger = logger.With(logging.String(logging.FieldRunID, c.runID))
	})
	return c.logger
}

func (c *commandContext) hashVersion(override int) (identity.Version, error) {
	v := identity.Version(c.config.Identity.HashVersion)
	if override != 0 {
		v = identity.Version(override)
	}
	if !v.Supported() {
		return 0, fmt.Errorf("%w: %d", identity.ErrUnsupportedVersion, int(v))
	}
	return v, nil
}

// tables loads the normalization tables. A missing tables file leaves only
// the built-in packaging vocabulary.
func (c *commandContext) tables() (*tables.Tables, error) {
	path := c.config.Paths.TablesFile
	tbl, err := tables.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(c.log(), "tables file missing", "tables_missing",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "create the tables file to resolve publishers and tags"),
			logging.String(logging.FieldImpact, "publisher and tag aliases will not resolve"))
		return tables.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return tbl, nil
}

// registry merges the GS1 registry file with the prefix history committed
// to the catalog. Either source may be absent.
func (c *commandContext) registry(ctx context.Context) (*gs1.Registry, error) {
	reg, err := gs1.Load(c.config.Paths.GS1Registry)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reg, _ = gs1.NewRegistry()
	case err != nil:
		return nil, fmt.Errorf("load gs1 registry: %w", err)
	}

	if _, err := os.Stat(c.config.Paths.CatalogDB); err != nil {
		return reg, nil
	}
	err = c.withCatalog(func(store *catalog.Store) error {
		stored, err := store.LoadRegistry(ctx)
		if err != nil {
			return err
		}
		for _, rec := range stored.Records() {
			if err := reg.Append(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog prefixes: %w", err)
	}
	return reg, nil
}

func (c *commandContext) pipelineOptions(ctx context.Context, versionOverride int) (pipeline.Options, error) {
	v, err := c.hashVersion(versionOverride)
	if err != nil {
		return pipeline.Options{}, err
	}
	tbl, err := c.tables()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Version:     v,
		Tables:      tbl,
		GS1Fallback: c.config.Identity.GS1Fallback,
		AsOf:        time.Now().UTC(),
	}
	if opts.GS1Fallback {
		if opts.Registry, err = c.registry(ctx); err != nil {
			return pipeline.Options{}, err
		}
	}
	return opts, nil
}

func (c *commandContext) redirects() *redirect.FileStore {
	return redirect.NewFileStore(c.config.Paths.RedirectTable, c.log())
}

func (c *commandContext) withCatalog(fn func(*catalog.Store) error) error {
	store, err := catalog.Open(c.config, c.log())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
