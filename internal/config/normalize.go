package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rasterandstate/majestic-canon/internal/identity"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIdentity()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.tables_file", &c.Paths.TablesFile, defaultTablesFile},
		{"paths.gs1_registry", &c.Paths.GS1Registry, defaultGS1Registry},
		{"paths.redirect_table", &c.Paths.RedirectTable, defaultRedirectTable},
		{"paths.catalog_db", &c.Paths.CatalogDB, defaultCatalogDB},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.def
		}
		expanded, err := ExpandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeIdentity() {
	if c.Identity.HashVersion == 0 {
		c.Identity.HashVersion = int(identity.Current)
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("MAJESTIC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
