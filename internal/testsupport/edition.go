package testsupport

import (
	"testing"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/tables"
)

// SampleTables is a small tables document covering the fixtures below.
const SampleTables = `
publishers:
  - id: criterion
    name: The Criterion Collection
    aliases: ["Criterion"]
    country: US
  - id: arrow
    name: Arrow Video
    country: GB
tags:
  - id: directors_cut
    aliases: ["Director's Cut"]
  - id: theatrical
  - id: limited
    aliases: ["Limited Edition"]
  - id: remastered
tag_conflicts:
  - [directors_cut, theatrical]
`

// MustTables parses SampleTables.
func MustTables(t testing.TB) *tables.Tables {
	t.Helper()

	tbl, err := tables.Parse([]byte(SampleTables))
	if err != nil {
		t.Fatalf("tables.Parse: %v", err)
	}
	return tbl
}

// EditionOption customizes a fixture edition.
type EditionOption func(*edition.Edition)

// NewEdition returns the two-disc Criterion steelbook fixture: a region-free
// UHD followed by a region A Blu-ray, released 2022, no UPC.
func NewEdition(opts ...EditionOption) *edition.Edition {
	e := &edition.Edition{
		Movies:      []edition.MovieRef{{MovieRefID: 42, Title: "Seven Samurai", Year: 1954}},
		ReleaseYear: 2022,
		Publisher:   "criterion",
		Packaging:   edition.Packaging{Type: "steelbook"},
		Discs: []edition.Disc{
			{Format: "UHD", DiscCount: 1, Region: "FREE"},
			{Format: "BLURAY", DiscCount: 1, Region: "A"},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithUPC sets the UPC.
func WithUPC(upc string) EditionOption {
	return func(e *edition.Edition) { e.UPC = upc }
}

// WithPublisher sets the publisher.
func WithPublisher(publisher string) EditionOption {
	return func(e *edition.Edition) { e.Publisher = publisher }
}

// WithTags sets the edition tags.
func WithTags(tags ...string) EditionOption {
	return func(e *edition.Edition) { e.EditionTags = tags }
}

// WithDiscs replaces the disc list.
func WithDiscs(discs ...edition.Disc) EditionOption {
	return func(e *edition.Edition) { e.Discs = discs }
}

// WithMovies replaces the movie list.
func WithMovies(ids ...int) EditionOption {
	return func(e *edition.Edition) {
		e.Movies = e.Movies[:0:0]
		for _, id := range ids {
			e.Movies = append(e.Movies, edition.MovieRef{MovieRefID: id})
		}
	}
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
