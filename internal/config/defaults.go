package config

import "github.com/rasterandstate/majestic-canon/internal/identity"

const (
	defaultConfigPath    = "~/.config/majestic/config.toml"
	projectConfigPath    = "majestic.toml"
	defaultTablesFile    = "~/.config/majestic/tables.yaml"
	defaultGS1Registry   = "~/.config/majestic/gs1_prefixes.yaml"
	defaultRedirectTable = "~/.local/share/majestic/redirects.json"
	defaultCatalogDB     = "~/.local/share/majestic/catalog.db"
	defaultLogDir        = "~/.local/share/majestic/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TablesFile:    defaultTablesFile,
			GS1Registry:   defaultGS1Registry,
			RedirectTable: defaultRedirectTable,
			CatalogDB:     defaultCatalogDB,
			LogDir:        defaultLogDir,
		},
		Identity: Identity{
			HashVersion: int(identity.Current),
			GS1Fallback: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
