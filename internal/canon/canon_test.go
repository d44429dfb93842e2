package canon_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rasterandstate/majestic-canon/internal/canon"
	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/testsupport"
)

func derive(t *testing.T, e *edition.Edition, v identity.Version, tbl canon.Tables) (string, identity.ID) {
	t.Helper()
	canonical, err := canon.Canonicalize(e, v, tbl)
	if err != nil {
		t.Fatalf("Canonicalize(%s) failed: %v", v, err)
	}
	id, err := identity.Derive(canonical, v)
	if err != nil {
		t.Fatalf("Derive(%s) failed: %v", v, err)
	}
	return string(canonical), id
}

func TestRoundTripGoldenForms(t *testing.T) {
	tests := []struct {
		version   identity.Version
		canonical string
		digest    string
	}{
		{
			identity.V1,
			`{"discs":[{"disc_count":1,"format":"uhd"},{"disc_count":1,"format":"bluray"}],"edition_tags":[],"movie_ref_id":42,"packaging_type":"steelbook","publisher":"criterion","region":"free","release_year":2022}`,
			"3878febf3b53fba9e583eef29d5bc92c09ae32395fab11e89c8c0198955878cc",
		},
		{
			identity.V2,
			`{"discs":[{"disc_count":1,"format":"uhd","region":"free"},{"disc_count":1,"format":"bluray","region":"a"}],"edition_tags":[],"movie_ref_id":42,"packaging":{"type":"steelbook"},"publisher":"criterion","release_year":2022}`,
			"f3a14fe0cc08f5dde3acc997b9d45fc3d4fe015793016fddb321065945e27e2e",
		},
		{
			identity.V3,
			`{"discs":[{"disc_count":1,"format":"uhd","region":"free"},{"disc_count":1,"format":"bluray","region":"a"}],"edition_tags":[],"movie_ref_id":42,"packaging":{"type":"steelbook"},"publisher":"criterion","release_year":2022}`,
			"f3a14fe0cc08f5dde3acc997b9d45fc3d4fe015793016fddb321065945e27e2e",
		},
		{
			identity.V4,
			`{"discs":[{"disc_count":1,"format":"uhd","region":"free"},{"disc_count":1,"format":"bluray","region":"a"}],"edition_tags":[],"movies":[{"movie_ref_id":42}],"packaging":{"type":"steelbook"},"publisher":"criterion","release_year":2022}`,
			"20ecb66c6d3c9acb408ead239ff6432dd4af49d05947f9b5c134d0b1cdd17b0f",
		},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			canonical, id := derive(t, testsupport.NewEdition(), tt.version, nil)
			if canonical != tt.canonical {
				t.Fatalf("canonical form mismatch\n got: %s\nwant: %s", canonical, tt.canonical)
			}
			want := "edition:" + tt.version.String() + ":" + tt.digest
			if string(id) != want {
				t.Fatalf("id = %s, want %s", id, want)
			}
			_, again := derive(t, testsupport.NewEdition(), tt.version, nil)
			if again != id {
				t.Fatalf("re-derivation drifted: %s vs %s", again, id)
			}
		})
	}
}

func TestCanonicalFormOmitsAbsentUPC(t *testing.T) {
	canonical, _ := derive(t, testsupport.NewEdition(), identity.V4, nil)
	if strings.Contains(canonical, "upc") {
		t.Fatalf("expected no upc key, got %s", canonical)
	}
	canonical, _ = derive(t, testsupport.NewEdition(testsupport.WithUPC(" 0-71551-50991-2 ")), identity.V4, nil)
	if !strings.Contains(canonical, `"upc":"071551509912"`) {
		t.Fatalf("expected normalized upc, got %s", canonical)
	}
}

func TestDeterminismAcrossFieldOrderAndNoise(t *testing.T) {
	docA := `{
	  "schema_version": "4.0.0",
	  "movies": [{"movie_ref_id": 7}, {"movie_ref_id": 3, "title": "B"}],
	  "release_year": 2019,
	  "publisher": "The Criterion Collection",
	  "packaging": {"type": "Steel Book", "notes": "embossed"},
	  "edition_tags": ["Director's Cut", "limited", "LIMITED EDITION"],
	  "discs": [{"format": "bluray", "region": "Region A", "languages": ["en"]}],
	  "notes": "first pressing",
	  "external_refs": [{"source": "tmdb", "id": "1"}]
	}`
	docB := `{
	  "discs": [{"region": " a ", "format": "BLURAY", "disc_count": 1}],
	  "edition_tags": ["limited_edition", "directors_cut"],
	  "packaging": {"type": "steelbook"},
	  "publisher": "criterion",
	  "release_year": 2019,
	  "movies": [{"movie_ref_id": 3}, {"movie_ref_id": 7, "title": "A", "year": 1990}],
	  "notes": "reissue"
	}`
	tbl := testsupport.MustTables(t)
	a, err := edition.Decode([]byte(docA))
	if err != nil {
		t.Fatalf("decode A: %v", err)
	}
	b, err := edition.Decode([]byte(docB))
	if err != nil {
		t.Fatalf("decode B: %v", err)
	}
	for _, v := range identity.Versions() {
		canonA, idA := derive(t, a, v, tbl)
		canonB, idB := derive(t, b, v, tbl)
		if canonA != canonB {
			t.Fatalf("%s canonical forms differ:\n%s\n%s", v, canonA, canonB)
		}
		if idA != idB {
			t.Fatalf("%s ids differ: %s vs %s", v, idA, idB)
		}
	}
}

func TestSensitivityToIdentityFields(t *testing.T) {
	tbl := testsupport.MustTables(t)
	base := testsupport.NewEdition()
	_, baseID := derive(t, base, identity.V4, tbl)

	mutations := map[string]func(*edition.Edition){
		"publisher":      func(e *edition.Edition) { e.Publisher = "arrow" },
		"release_year":   func(e *edition.Edition) { e.ReleaseYear = 2023 },
		"packaging":      func(e *edition.Edition) { e.Packaging.Type = "digipak" },
		"upc":            func(e *edition.Edition) { e.UPC = "715515099129" },
		"disc order":     func(e *edition.Edition) { e.Discs[0], e.Discs[1] = e.Discs[1], e.Discs[0] },
		"edition_tags":   func(e *edition.Edition) { e.EditionTags = []string{"remastered"} },
		"disc format":    func(e *edition.Edition) { e.Discs[1].Format = "DVD" },
		"disc count":     func(e *edition.Edition) { e.Discs[1].DiscCount = 2 },
		"disc region":    func(e *edition.Edition) { e.Discs[1].Region = "B" },
		"movies":         func(e *edition.Edition) { e.Movies = append(e.Movies, edition.MovieRef{MovieRefID: 43}) },
		"disc movie ref": func(e *edition.Edition) { e.Discs[0].MovieRefID = testsupport.Int(42) },
		"surfaces": func(e *edition.Edition) {
			e.Discs[1].Format = "DVD"
			e.Discs[1].Surfaces = []edition.Surface{{Side: "A"}, {Side: "B"}}
		},
	}
	seen := map[identity.ID]string{baseID: "base"}
	for name, mutate := range mutations {
		e := testsupport.NewEdition()
		mutate(e)
		_, id := derive(t, e, identity.V4, tbl)
		if prev, ok := seen[id]; ok {
			t.Errorf("mutation %q collides with %q: %s", name, prev, id)
		}
		seen[id] = name
	}
}

func TestNotesAndExternalRefsAreIgnored(t *testing.T) {
	_, base := derive(t, testsupport.NewEdition(), identity.V4, nil)
	e := testsupport.NewEdition()
	e.Notes = "anything"
	e.Packaging.Notes = "numbered slip"
	e.ExternalRefs = []edition.ExternalRef{{Source: "tmdb", ID: "346"}}
	e.Movies[0].Title = "Shichinin no Samurai"
	e.Discs[0].Languages = []string{"ja", "en"}
	e.Discs[0].DiscIdentity = &edition.DiscIdentity{StructureHash: "abc"}
	e.DiscStructures = map[string]edition.DiscStructureEntry{"abc": {Slot: 1, Role: "feature"}}
	e.SchemaVersion = "4.2.0"
	if _, id := derive(t, e, identity.V4, nil); id != base {
		t.Fatalf("non-identity fields changed the id: %s vs %s", id, base)
	}
}

func TestAmbiguityCollectsEveryProblem(t *testing.T) {
	e := testsupport.NewEdition(testsupport.WithTags("bootleg"))
	e.Packaging.Type = "jewel box"
	e.Discs[1].Region = "Z9"
	e.Discs[0].Format = "laserdisc"

	_, err := canon.Canonicalize(e, identity.V4, testsupport.MustTables(t))
	if !errors.Is(err, canon.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	var ambiguity *canon.AmbiguityError
	if !errors.As(err, &ambiguity) {
		t.Fatalf("expected *AmbiguityError, got %T", err)
	}
	fields := make(map[string]bool)
	for _, p := range ambiguity.Problems {
		fields[p.Field] = true
	}
	for _, want := range []string{"packaging.type", "discs[1].region", "discs[0].format", "edition_tags[0]"} {
		if !fields[want] {
			t.Errorf("expected problem for %s, got %+v", want, ambiguity.Problems)
		}
	}
}

func TestRegionFreeAndUnknownAreDistinct(t *testing.T) {
	withRegion := func(region string) *edition.Edition {
		return testsupport.NewEdition(testsupport.WithDiscs(edition.Disc{Format: "BLURAY", DiscCount: 1, Region: region}))
	}
	_, free := derive(t, withRegion("Region Free"), identity.V4, nil)
	_, freeAlias := derive(t, withRegion("RF"), identity.V4, nil)
	_, unknown := derive(t, withRegion("unknown"), identity.V4, nil)
	_, researched := derive(t, withRegion("Researched-Unknown"), identity.V4, nil)
	_, absent := derive(t, withRegion(""), identity.V4, nil)

	if free != freeAlias {
		t.Fatalf("region free synonyms diverged: %s vs %s", free, freeAlias)
	}
	if unknown != researched {
		t.Fatalf("unknown synonyms diverged: %s vs %s", unknown, researched)
	}
	if free == unknown || free == absent || unknown == absent {
		t.Fatal("free, unknown and absent regions must all differ")
	}
}

func TestFrozenRegionTablesDoNotGrow(t *testing.T) {
	e := testsupport.NewEdition(testsupport.WithDiscs(edition.Disc{Format: "BLURAY", DiscCount: 1, Region: "RF"}))
	if _, err := canon.Canonicalize(e, identity.V2, nil); !errors.Is(err, canon.ErrAmbiguous) {
		t.Fatalf("expected v2 to reject a v4-only synonym, got %v", err)
	}
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := canon.Canonicalize(testsupport.NewEdition(), identity.Version(9), nil)
	if !errors.Is(err, identity.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestV4MultiMovieProjection(t *testing.T) {
	e := testsupport.NewEdition(testsupport.WithMovies(9, 2, 5))
	e.Discs[0].MovieRefID = testsupport.Int(9)
	projection, err := canon.Project(e, identity.V4, nil)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	raw, err := json.Marshal(projection["movies"])
	if err != nil {
		t.Fatalf("marshal movies: %v", err)
	}
	if string(raw) != `[{"movie_ref_id":2},{"movie_ref_id":5},{"movie_ref_id":9}]` {
		t.Fatalf("unexpected movies projection %s", raw)
	}

	v1, err := canon.Project(e, identity.V1, nil)
	if err != nil {
		t.Fatalf("Project v1 failed: %v", err)
	}
	if v1["movie_ref_id"] != 2 {
		t.Fatalf("v1 should keep the lowest movie id, got %v", v1["movie_ref_id"])
	}
}
