package identity

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// schemaBindings maps document schema ranges onto the hash version whose
// rules were current when that schema shipped. Ranges never overlap.
var schemaBindings = []struct {
	constraint string
	version    Version
}{
	{">= 1.0.0, < 2.0.0", V1},
	{">= 2.0.0, < 3.0.0", V2},
	{">= 3.0.0, < 4.0.0", V3},
	{">= 4.0.0", V4},
}

// VersionForSchema returns the hash version bound to a document schema
// version. An empty schema version means the current schema.
func VersionForSchema(schemaVersion string) (Version, error) {
	schemaVersion = strings.TrimSpace(schemaVersion)
	if schemaVersion == "" {
		return Current, nil
	}
	v, err := semver.NewVersion(schemaVersion)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", schemaVersion, err)
	}
	for _, binding := range schemaBindings {
		c, err := semver.NewConstraint(binding.constraint)
		if err != nil {
			return 0, fmt.Errorf("schema binding %q: %w", binding.constraint, err)
		}
		if c.Check(v) {
			return binding.version, nil
		}
	}
	return 0, fmt.Errorf("%w: no hash version bound to schema %s", ErrUnsupportedVersion, v)
}
