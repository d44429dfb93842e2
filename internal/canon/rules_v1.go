package canon

import (
	"fmt"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/textutil"
)

// projectV1 is frozen. Editions carried a single movie and one region for
// the whole release, taken from the first disc that names one.
func projectV1(e *edition.Edition, n *normalizer) map[string]any {
	out := map[string]any{
		"release_year":   e.ReleaseYear,
		"publisher":      n.publisher(e.Publisher),
		"packaging_type": n.packaging(e.Packaging.Type),
		"edition_tags":   n.tags(e.EditionTags),
	}
	if ids := sortedMovieIDs(e.Movies); len(ids) > 0 {
		out["movie_ref_id"] = ids[0]
	}
	for i, d := range e.Discs {
		if textutil.Token(d.Region) == "" {
			continue
		}
		if region := n.region(fmt.Sprintf("discs[%d].region", i), d.Region); region != "" {
			out["region"] = region
		}
		break
	}
	discs := make([]any, 0, len(e.Discs))
	for i, d := range e.Discs {
		discs = append(discs, map[string]any{
			"format":     n.format(fmt.Sprintf("discs[%d].format", i), d.Format),
			"disc_count": d.DiscCount,
		})
	}
	out["discs"] = discs
	return out
}
