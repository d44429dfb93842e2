package canon

import (
	"github.com/rasterandstate/majestic-canon/internal/edition"
)

// projectV3 is frozen. Adds the normalized upc when one is present.
func projectV3(e *edition.Edition, n *normalizer) map[string]any {
	out := projectV2(e, n)
	if upc := edition.NormalizeUPC(e.UPC); upc != "" {
		out["upc"] = upc
	}
	return out
}
