package tables

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rasterandstate/majestic-canon/internal/edition"
)

const sampleTables = `
publishers:
  - id: criterion
    name: The Criterion Collection
    aliases: ["Criterion", "CC"]
    country: US
  - id: arrow
    name: Arrow Video
packaging:
  steelbook: ["metal case"]
tags:
  - id: directors_cut
    aliases: ["Director's Cut", "DC"]
  - id: theatrical
  - id: limited
    aliases: ["Limited Edition"]
tag_conflicts:
  - [directors_cut, theatrical]
`

func TestParseResolvesAliases(t *testing.T) {
	tbl, err := Parse([]byte(sampleTables))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if id, ok := tbl.ResolvePublisher("  the criterion collection "); !ok || id != "criterion" {
		t.Fatalf("ResolvePublisher by name = %q, %v", id, ok)
	}
	if id, ok := tbl.ResolvePublisher("cc"); !ok || id != "criterion" {
		t.Fatalf("ResolvePublisher by alias = %q, %v", id, ok)
	}
	if _, ok := tbl.ResolvePublisher("kino lorber"); ok {
		t.Fatal("expected unknown publisher to miss")
	}
	if p, ok := tbl.Publisher("criterion"); !ok || p.Country != "US" {
		t.Fatalf("Publisher lookup = %+v, %v", p, ok)
	}

	if pt, ok := tbl.ResolvePackaging("Metal Case"); !ok || pt != edition.PackagingSteelbook {
		t.Fatalf("ResolvePackaging document synonym = %q, %v", pt, ok)
	}
	if pt, ok := tbl.ResolvePackaging("Amaray"); !ok || pt != edition.PackagingKeepcase {
		t.Fatalf("ResolvePackaging builtin synonym = %q, %v", pt, ok)
	}

	if id, ok := tbl.ResolveTag("dc"); !ok || id != "directors_cut" {
		t.Fatalf("ResolveTag alias = %q, %v", id, ok)
	}
	if got := tbl.ConflictsWith("theatrical"); len(got) != 1 || got[0] != "directors_cut" {
		t.Fatalf("ConflictsWith = %v", got)
	}
}

func TestNewReportsEveryAliasCollision(t *testing.T) {
	doc := Document{
		Publishers: []Publisher{
			{ID: "a", Name: "Shared"},
			{ID: "b", Name: "Shared"},
		},
		Packaging: map[string][]string{"tin": {"x"}},
		Tags: []Tag{
			{ID: "one", Aliases: []string{"dup"}},
			{ID: "two", Aliases: []string{"dup"}},
		},
	}
	_, err := New(doc)
	if err == nil {
		t.Fatal("expected collisions to be reported")
	}
	msg := err.Error()
	for _, want := range []string{`publisher alias "shared"`, `packaging type "tin"`, `tag alias "dup"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %s, got %q", want, msg)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte(sampleTables), 0o644); err != nil {
		t.Fatalf("write tables: %v", err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := tbl.ResolveTag("limited_edition"); !ok {
		t.Fatal("expected limited edition alias to resolve")
	}
}

func TestEmptyKnowsBuiltinPackaging(t *testing.T) {
	tbl := Empty()
	for _, pt := range edition.PackagingTypes {
		if got, ok := tbl.ResolvePackaging(string(pt)); !ok || got != pt {
			t.Errorf("ResolvePackaging(%q) = %q, %v", pt, got, ok)
		}
	}
}
