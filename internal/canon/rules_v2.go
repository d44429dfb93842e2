package canon

import (
	"fmt"

	"github.com/rasterandstate/majestic-canon/internal/edition"
)

// projectV2 is frozen. Region moved from the edition onto each disc and
// packaging became a nested object.
func projectV2(e *edition.Edition, n *normalizer) map[string]any {
	out := map[string]any{
		"release_year": e.ReleaseYear,
		"publisher":    n.publisher(e.Publisher),
		"packaging":    map[string]any{"type": n.packaging(e.Packaging.Type)},
		"edition_tags": n.tags(e.EditionTags),
	}
	if ids := sortedMovieIDs(e.Movies); len(ids) > 0 {
		out["movie_ref_id"] = ids[0]
	}
	discs := make([]any, 0, len(e.Discs))
	for i, d := range e.Discs {
		disc := map[string]any{
			"format":     n.format(fmt.Sprintf("discs[%d].format", i), d.Format),
			"disc_count": d.DiscCount,
		}
		if region := n.region(fmt.Sprintf("discs[%d].region", i), d.Region); region != "" {
			disc["region"] = region
		}
		discs = append(discs, disc)
	}
	out["discs"] = discs
	return out
}
