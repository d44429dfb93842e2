package tables

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/textutil"
)

// Publisher is one entry of the publisher registry.
type Publisher struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Country string   `yaml:"country,omitempty" json:"country,omitempty"`
}

// Tag is a canonical edition tag and the spellings that resolve to it.
type Tag struct {
	ID      string   `yaml:"id"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Document is the on-disk shape of the tables file.
type Document struct {
	Publishers   []Publisher         `yaml:"publishers"`
	Packaging    map[string][]string `yaml:"packaging"`
	Tags         []Tag               `yaml:"tags"`
	TagConflicts [][]string          `yaml:"tag_conflicts"`
}

// Tables is the indexed, read-only form of a Document. It is safe for
// concurrent use.
type Tables struct {
	publishers  map[string]Publisher
	publisherBy map[string]string
	packaging   map[string]edition.PackagingType
	tags        map[string]string
	conflicts   map[string][]string
}

// builtinPackaging are spellings every table recognizes in addition to the
// ones a document supplies.
var builtinPackaging = map[edition.PackagingType][]string{
	edition.PackagingKeepcase:  {"keep case", "amaray", "standard case"},
	edition.PackagingSteelbook: {"steel book", "steelcase"},
	edition.PackagingDigipak:   {"digipack", "digi pak"},
	edition.PackagingSlipcover: {"slip cover", "slipcase", "o-ring"},
	edition.PackagingBoxset:    {"box set", "box"},
}

// Load reads and indexes the YAML tables document at path.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return Parse(data)
}

// Parse indexes a YAML tables document.
func Parse(data []byte) (*Tables, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	return New(doc)
}

// Empty returns tables that only know the builtin packaging spellings.
func Empty() *Tables {
	t, err := New(Document{})
	if err != nil {
		panic(err) // builtin entries never conflict
	}
	return t
}

// New indexes doc. Every alias collision is reported together.
func New(doc Document) (*Tables, error) {
	t := &Tables{
		publishers:  make(map[string]Publisher, len(doc.Publishers)),
		publisherBy: make(map[string]string),
		packaging:   make(map[string]edition.PackagingType),
		tags:        make(map[string]string),
		conflicts:   make(map[string][]string),
	}
	var errs []error

	bind := func(index map[string]string, kind, key, id string) {
		key = textutil.Token(key)
		if key == "" {
			return
		}
		if existing, ok := index[key]; ok && existing != id {
			errs = append(errs, fmt.Errorf("%s alias %q maps to both %q and %q", kind, key, existing, id))
			return
		}
		index[key] = id
	}

	for _, p := range doc.Publishers {
		id := textutil.Token(p.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("publisher %q has no id", p.Name))
			continue
		}
		p.ID = id
		t.publishers[id] = p
		bind(t.publisherBy, "publisher", id, id)
		bind(t.publisherBy, "publisher", p.Name, id)
		for _, alias := range p.Aliases {
			bind(t.publisherBy, "publisher", alias, id)
		}
	}

	for _, pt := range edition.PackagingTypes {
		t.packaging[string(pt)] = pt
		for _, syn := range builtinPackaging[pt] {
			t.packaging[textutil.Token(syn)] = pt
		}
	}
	for kind, synonyms := range doc.Packaging {
		pt := edition.PackagingType(textutil.Token(kind))
		if !isPackagingType(pt) {
			errs = append(errs, fmt.Errorf("packaging type %q is not defined", kind))
			continue
		}
		for _, syn := range synonyms {
			key := textutil.Token(syn)
			if existing, ok := t.packaging[key]; ok && existing != pt {
				errs = append(errs, fmt.Errorf("packaging alias %q maps to both %q and %q", key, existing, pt))
				continue
			}
			t.packaging[key] = pt
		}
	}

	for _, tag := range doc.Tags {
		id := textutil.Token(tag.ID)
		if id == "" {
			errs = append(errs, errors.New("tag with empty id"))
			continue
		}
		bind(t.tags, "tag", id, id)
		for _, alias := range tag.Aliases {
			bind(t.tags, "tag", alias, id)
		}
	}

	for _, pair := range doc.TagConflicts {
		if len(pair) != 2 {
			errs = append(errs, fmt.Errorf("tag conflict %v must name exactly two tags", pair))
			continue
		}
		a, b := textutil.Token(pair[0]), textutil.Token(pair[1])
		t.conflicts[a] = append(t.conflicts[a], b)
		t.conflicts[b] = append(t.conflicts[b], a)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// ResolvePublisher maps a publisher id, display name or alias to its
// registry id.
func (t *Tables) ResolvePublisher(raw string) (string, bool) {
	id, ok := t.publisherBy[textutil.Token(raw)]
	return id, ok
}

// Publisher returns the registry entry for id.
func (t *Tables) Publisher(id string) (Publisher, bool) {
	p, ok := t.publishers[id]
	return p, ok
}

// ResolvePackaging maps a packaging spelling to the closed packaging enum.
func (t *Tables) ResolvePackaging(raw string) (edition.PackagingType, bool) {
	pt, ok := t.packaging[textutil.Token(raw)]
	return pt, ok
}

// ResolveTag maps a tag spelling to its canonical tag id. token must already
// be in Token form.
func (t *Tables) ResolveTag(token string) (string, bool) {
	id, ok := t.tags[token]
	return id, ok
}

// ConflictsWith returns the canonical tags that may not appear alongside tag,
// sorted.
func (t *Tables) ConflictsWith(tag string) []string {
	out := append([]string(nil), t.conflicts[tag]...)
	sort.Strings(out)
	return out
}

func isPackagingType(pt edition.PackagingType) bool {
	for _, known := range edition.PackagingTypes {
		if pt == known {
			return true
		}
	}
	return false
}
