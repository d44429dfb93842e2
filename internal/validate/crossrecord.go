package validate

import (
	"fmt"
	"sort"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/textutil"
)

// Registry is the subset of the curated tables the advisory checks consult.
// *tables.Tables satisfies it.
type Registry interface {
	ResolvePublisher(raw string) (string, bool)
	ResolveTag(token string) (string, bool)
	ConflictsWith(tag string) []string
}

// Record names one edition within a batch.
type Record struct {
	Name    string
	Edition *edition.Edition
}

// CrossRecord returns advisory violations across records: UPCs shared by
// more than one edition, publishers missing from the registry and tag pairs
// the registry marks as conflicting.
func CrossRecord(records []Record, reg Registry) []Violation {
	var out []Violation
	advise := func(record string, kind Kind, path, format string, args ...any) {
		out = append(out, Violation{
			Record:   record,
			Kind:     kind,
			Severity: SeverityAdvisory,
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	byUPC := make(map[string][]string)
	for _, r := range records {
		if r.Edition == nil {
			continue
		}
		if upc := edition.NormalizeUPC(r.Edition.UPC); upc != "" {
			byUPC[upc] = append(byUPC[upc], r.Name)
		}
		if reg == nil {
			continue
		}
		if _, ok := reg.ResolvePublisher(r.Edition.Publisher); !ok {
			advise(r.Name, KindUnknownPublisher, "publisher", "publisher %q is not in the registry", r.Edition.Publisher)
		}
		for _, pair := range conflictingTags(r.Edition.EditionTags, reg) {
			advise(r.Name, KindTagConflict, "edition_tags", "tags %q and %q conflict", pair[0], pair[1])
		}
	}

	upcs := make([]string, 0, len(byUPC))
	for upc := range byUPC {
		upcs = append(upcs, upc)
	}
	sort.Strings(upcs)
	for _, upc := range upcs {
		names := byUPC[upc]
		if len(names) < 2 {
			continue
		}
		for i, name := range names {
			others := make([]string, 0, len(names)-1)
			others = append(others, names[:i]...)
			others = append(others, names[i+1:]...)
			advise(name, KindDuplicateUPC, "upc", "upc %s is also used by %v", upc, others)
		}
	}
	return out
}

// conflictingTags returns each conflicting pair once, sorted.
func conflictingTags(raw []string, reg Registry) [][2]string {
	present := make(map[string]struct{}, len(raw))
	for _, value := range raw {
		if id, ok := reg.ResolveTag(textutil.Token(value)); ok {
			present[id] = struct{}{}
		}
	}
	tags := make([]string, 0, len(present))
	for id := range present {
		tags = append(tags, id)
	}
	sort.Strings(tags)

	var pairs [][2]string
	for _, tag := range tags {
		for _, other := range reg.ConflictsWith(tag) {
			if _, ok := present[other]; ok && tag < other {
				pairs = append(pairs, [2]string{tag, other})
			}
		}
	}
	return pairs
}
