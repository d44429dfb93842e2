package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/identity"
)

// Fixture pins a historical edition to the id it was issued under.
type Fixture struct {
	Name       string           `json:"name"`
	ExpectedID identity.ID      `json:"expected_id"`
	Edition    *edition.Edition `json:"-"`
}

type fixtureDocument struct {
	Name       string          `json:"name"`
	ExpectedID string          `json:"expected_id"`
	Edition    json.RawMessage `json:"edition"`
}

// LoadFixture reads a fixture file of the form
// {"name": ..., "expected_id": ..., "edition": {...}}.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var doc fixtureDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	id, err := identity.ParseID(doc.ExpectedID)
	if err != nil {
		return Fixture{}, fmt.Errorf("fixture %s: %w", path, err)
	}
	e, err := edition.Decode(doc.Edition)
	if err != nil {
		return Fixture{}, fmt.Errorf("fixture %s: %w", path, err)
	}
	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Fixture{Name: name, ExpectedID: id, Edition: e}, nil
}

// Drift is a fixture whose re-derived id no longer matches.
type Drift struct {
	Name     string      `json:"name"`
	Expected identity.ID `json:"expected"`
	Got      identity.ID `json:"got,omitempty"`
	Err      error       `json:"-"`
}

func (d Drift) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %v", d.Name, d.Err)
	}
	return fmt.Sprintf("%s: expected %s, derived %s", d.Name, d.Expected, d.Got)
}

// VerifyFixture re-derives f under the hash version encoded in its expected
// id. A nil return means the historical id is still reproducible.
func VerifyFixture(f Fixture, opts Options) *Drift {
	opts.Version = f.ExpectedID.Version()
	res := Identify(f.Name, f.Edition, opts)
	return compare(f.Name, f.ExpectedID, res)
}

// VerifyFile checks a document stored under its own digest, <hex>.json,
// deriving with the hash version bound to the document's schema version.
func VerifyFile(path string, opts Options) *Drift {
	name := filepath.Base(path)
	hex := strings.TrimSuffix(name, filepath.Ext(name))
	if !identity.IsHexDigest(hex) {
		return &Drift{Name: name, Err: fmt.Errorf("file name %q is not a digest", name)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &Drift{Name: name, Err: fmt.Errorf("read document: %w", err)}
	}
	e, err := edition.Decode(data)
	if err != nil {
		return &Drift{Name: name, Err: err}
	}
	v, err := identity.VersionForSchema(e.SchemaVersion)
	if err != nil {
		return &Drift{Name: name, Err: err}
	}
	opts.Version = v
	res := Identify(name, e, opts)
	if !res.OK() {
		return compare(name, "", res)
	}
	if res.ID.Hex() != hex {
		return &Drift{Name: name, Expected: identity.ID(fmt.Sprintf("edition:%s:%s", v, hex)), Got: res.ID}
	}
	return nil
}

func compare(name string, expected identity.ID, res Result) *Drift {
	if !res.OK() {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("%d structural violations", len(res.Violations))
		}
		return &Drift{Name: name, Expected: expected, Err: err}
	}
	if res.ID != expected {
		return &Drift{Name: name, Expected: expected, Got: res.ID}
	}
	return nil
}
