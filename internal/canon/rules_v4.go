package canon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rasterandstate/majestic-canon/internal/edition"
)

// projectV4 is the current rule set. The movies array replaces the single
// movie reference; discs carry their movie reference and surface sides.
func projectV4(e *edition.Edition, n *normalizer) map[string]any {
	out := map[string]any{
		"release_year": e.ReleaseYear,
		"publisher":    n.publisher(e.Publisher),
		"packaging":    map[string]any{"type": n.packaging(e.Packaging.Type)},
		"edition_tags": n.tags(e.EditionTags),
	}
	if upc := edition.NormalizeUPC(e.UPC); upc != "" {
		out["upc"] = upc
	}

	ids := sortedMovieIDs(e.Movies)
	movies := make([]any, 0, len(ids))
	for _, id := range ids {
		movies = append(movies, map[string]any{"movie_ref_id": id})
	}
	out["movies"] = movies

	discs := make([]any, 0, len(e.Discs))
	for i, d := range e.Discs {
		disc := map[string]any{
			"format":     n.format(fmt.Sprintf("discs[%d].format", i), d.Format),
			"disc_count": d.DiscCount,
		}
		if region := n.region(fmt.Sprintf("discs[%d].region", i), d.Region); region != "" {
			disc["region"] = region
		}
		if d.MovieRefID != nil {
			disc["movie_ref_id"] = *d.MovieRefID
		}
		if len(d.Surfaces) > 0 {
			sides := make([]string, 0, len(d.Surfaces))
			for _, s := range d.Surfaces {
				sides = append(sides, strings.ToLower(strings.TrimSpace(s.Side)))
			}
			sort.Strings(sides)
			disc["surfaces"] = sides
		}
		discs = append(discs, disc)
	}
	out["discs"] = discs
	return out
}
