package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/identity"
)

type checker struct {
	record     string
	violations []Violation
}

func (c *checker) add(kind Kind, path, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Record:   c.record,
		Kind:     kind,
		Severity: SeverityBlocking,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Structure returns every structural violation in e. It never mutates e.
func Structure(record string, e *edition.Edition) []Violation {
	c := &checker{record: record}
	if e == nil {
		c.add(KindNoMovies, "", "record is empty")
		return c.violations
	}
	c.movies(e)
	c.slots(e.Discs)
	for i := range e.Discs {
		c.disc(e, i)
	}
	c.structures(e)
	return c.violations
}

func (c *checker) movies(e *edition.Edition) {
	if len(e.Movies) == 0 {
		c.add(KindNoMovies, "movies", "at least one movie is required")
		return
	}
	first := make(map[int]int, len(e.Movies))
	for i, m := range e.Movies {
		if prev, ok := first[m.MovieRefID]; ok {
			c.add(KindDuplicateMovie, fmt.Sprintf("movies[%d]", i), "movie_ref_id %d already listed at movies[%d]", m.MovieRefID, prev)
			continue
		}
		first[m.MovieRefID] = i
	}
}

// slots reports one violation per pair of discs that share a slot. A disc
// without an explicit slot occupies its 1-based position; an explicit slot
// must name a position within the edition.
func (c *checker) slots(discs []edition.Disc) {
	bySlot := make(map[int][]int)
	for i, d := range discs {
		slot := i + 1
		if d.Slot != nil {
			slot = *d.Slot
			if slot < 1 || slot > len(discs) {
				c.add(KindInvalidSlot, fmt.Sprintf("discs[%d].slot", i), "slot %d is outside 1..%d", slot, len(discs))
				continue
			}
		}
		bySlot[slot] = append(bySlot[slot], i)
	}
	for _, slot := range sortedInts(bySlot) {
		holders := bySlot[slot]
		for a := 0; a < len(holders); a++ {
			for b := a + 1; b < len(holders); b++ {
				c.add(KindDuplicateSlot, fmt.Sprintf("discs[%d].slot", holders[b]),
					"slot %d is also used by discs[%d]", slot, holders[a])
			}
		}
	}
}

func (c *checker) disc(e *edition.Edition, i int) {
	d := e.Discs[i]
	path := fmt.Sprintf("discs[%d]", i)

	format, formatOK := edition.ParseFormat(d.Format)
	if !formatOK {
		c.add(KindInvalidFormat, path+".format", "format %q is not one of UHD, BLURAY, DVD, CD, OTHER", d.Format)
	}
	if strings.TrimSpace(d.Role) != "" {
		if _, ok := edition.ParseRole(d.Role); !ok {
			c.add(KindInvalidRole, path+".role", "role %q is not recognized", d.Role)
		}
	}
	if d.DiscCount < 1 {
		c.add(KindInvalidDiscCount, path+".disc_count", "disc_count must be at least 1, got %d", d.DiscCount)
	}
	if d.DuplicateOfDisc != nil {
		ref := *d.DuplicateOfDisc
		switch {
		case ref < 1:
			c.add(KindInvalidDuplicateOf, path+".duplicate_of_disc", "duplicate_of_disc must be positive, got %d", ref)
		case ref == i+1:
			c.add(KindInvalidDuplicateOf, path+".duplicate_of_disc", "disc cannot duplicate itself")
		case ref > len(e.Discs):
			c.add(KindInvalidDuplicateOf, path+".duplicate_of_disc", "duplicate_of_disc %d exceeds disc count %d", ref, len(e.Discs))
		}
	}
	if d.MovieRefID != nil && !e.HasMovie(*d.MovieRefID) {
		c.add(KindUnknownMovieRef, path+".movie_ref_id", "movie_ref_id %d is not in movies", *d.MovieRefID)
	}

	if len(d.Surfaces) == 0 {
		return
	}
	if formatOK && format != edition.FormatDVD {
		c.add(KindSurfaceFormat, path+".surfaces", "surfaces are only valid on DVD, not %s", format)
	}
	if len(d.Surfaces) > 2 {
		c.add(KindSurfaceCount, path+".surfaces", "at most 2 surfaces allowed, got %d", len(d.Surfaces))
	}
	seen := make(map[string]int, len(d.Surfaces))
	for j, s := range d.Surfaces {
		side := strings.ToUpper(strings.TrimSpace(s.Side))
		spath := fmt.Sprintf("%s.surfaces[%d].side", path, j)
		if side != string(edition.SideA) && side != string(edition.SideB) {
			c.add(KindInvalidSide, spath, "side %q must be A or B", s.Side)
			continue
		}
		if prev, ok := seen[side]; ok {
			c.add(KindDuplicateSide, spath, "side %s already used by surfaces[%d]", side, prev)
			continue
		}
		seen[side] = j
	}
	if !d.DiscIdentity.Empty() {
		c.add(KindIdentityConflict, path+".disc_identity", "disc_identity must not be set when surfaces carry identity")
	}
}

func (c *checker) structures(e *edition.Edition) {
	if len(e.DiscStructures) == 0 {
		return
	}
	hashes := make([]string, 0, len(e.DiscStructures))
	for h := range e.DiscStructures {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	// Keys are hex digests in either case; they compare lowercased.
	bySlot := make(map[int][]string)
	byKey := make(map[string]string, len(hashes))
	for _, h := range hashes {
		entry := e.DiscStructures[h]
		path := fmt.Sprintf("disc_structures[%s]", h)
		key := strings.ToLower(h)
		if !identity.IsHexDigest(key) {
			c.add(KindHashShape, path, "key must be 64 hex characters")
		} else if prev, ok := byKey[key]; ok {
			c.add(KindStructureKey, path, "key is the same digest as %s", prev)
		} else {
			byKey[key] = h
		}
		if entry.Slot < 1 || entry.Slot > len(e.Discs) {
			c.add(KindStructureSlot, path+".slot", "slot %d is outside 1..%d", entry.Slot, len(e.Discs))
		} else {
			bySlot[entry.Slot] = append(bySlot[entry.Slot], h)
		}
		if _, ok := edition.ParseRole(entry.Role); !ok {
			c.add(KindStructureRole, path+".role", "role %q is not recognized", entry.Role)
		}
	}
	for _, slot := range sortedInts(bySlot) {
		holders := bySlot[slot]
		for a := 0; a < len(holders); a++ {
			for b := a + 1; b < len(holders); b++ {
				c.add(KindStructureCollision, fmt.Sprintf("disc_structures[%s].slot", holders[b]),
					"slot %d is also mapped by %s", slot, holders[a])
			}
		}
	}
}

func sortedInts[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
