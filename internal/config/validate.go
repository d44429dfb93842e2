package config

import (
	"errors"
	"fmt"

	"github.com/rasterandstate/majestic-canon/internal/identity"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIdentity() error {
	v := identity.Version(c.Identity.HashVersion)
	if !v.Supported() {
		return fmt.Errorf("identity.hash_version %d is not supported (supported: 1-%d)", c.Identity.HashVersion, int(identity.Current))
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.Workers < 0 {
		return errors.New("validation.workers must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
