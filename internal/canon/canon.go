package canon

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/tables"
	"github.com/rasterandstate/majestic-canon/internal/textutil"
)

// Tables resolves curated spellings to canonical ids. *tables.Tables
// satisfies it.
type Tables interface {
	ResolvePublisher(raw string) (string, bool)
	ResolvePackaging(raw string) (edition.PackagingType, bool)
	ResolveTag(token string) (string, bool)
}

// ruleSet is one frozen canonicalization rule set.
type ruleSet struct {
	regions map[string]string
	project func(e *edition.Edition, n *normalizer) map[string]any
}

var ruleSets = map[identity.Version]ruleSet{
	identity.V1: {regions: regionsV1, project: projectV1},
	identity.V2: {regions: regionsV1, project: projectV2},
	identity.V3: {regions: regionsV1, project: projectV3},
	identity.V4: {regions: regionsV4, project: projectV4},
}

// Canonicalize returns the canonical encoding of e under the rules of hash
// version v. Unrecognized region, tag and packaging tokens are returned
// together as an *AmbiguityError.
func Canonicalize(e *edition.Edition, v identity.Version, t Tables) ([]byte, error) {
	projection, err := Project(e, v, t)
	if err != nil {
		return nil, err
	}
	return encode(projection)
}

// Project returns the identity-significant projection of e under version v
// before encoding.
func Project(e *edition.Edition, v identity.Version, t Tables) (map[string]any, error) {
	if e == nil {
		return nil, errors.New("edition is nil")
	}
	rs, ok := ruleSets[v]
	if !ok {
		return nil, fmt.Errorf("%w: %d", identity.ErrUnsupportedVersion, int(v))
	}
	if t == nil {
		t = tables.Empty()
	}
	n := &normalizer{tables: t, regions: rs.regions}
	projection := rs.project(e, n)
	if len(n.problems) > 0 {
		return nil, &AmbiguityError{Problems: n.problems}
	}
	return projection, nil
}

func encode(projection map[string]any) ([]byte, error) {
	raw, err := json.Marshal(projection)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical form: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return out, nil
}

// normalizer applies table lookups and records every miss.
type normalizer struct {
	tables   Tables
	regions  map[string]string
	problems []Ambiguity
}

func (n *normalizer) miss(field, value, table string) {
	n.problems = append(n.problems, Ambiguity{Field: field, Value: value, Table: table})
}

func (n *normalizer) publisher(raw string) string {
	if id, ok := n.tables.ResolvePublisher(raw); ok {
		return id
	}
	return textutil.Token(raw)
}

func (n *normalizer) packaging(raw string) string {
	if strings.TrimSpace(raw) == "" {
		n.miss("packaging.type", raw, "packaging")
		return ""
	}
	pt, ok := n.tables.ResolvePackaging(raw)
	if !ok {
		n.miss("packaging.type", raw, "packaging")
		return ""
	}
	return string(pt)
}

// region returns "" for an absent region.
func (n *normalizer) region(field, raw string) string {
	token := textutil.Token(raw)
	if token == "" {
		return ""
	}
	canonical, ok := n.regions[token]
	if !ok {
		n.miss(field, raw, "region")
		return ""
	}
	return canonical
}

func (n *normalizer) format(field, raw string) string {
	f, ok := edition.ParseFormat(raw)
	if !ok {
		n.miss(field, raw, "format")
		return ""
	}
	return strings.ToLower(string(f))
}

// tags returns the sorted, deduplicated canonical tag set.
func (n *normalizer) tags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for i, value := range raw {
		token := textutil.Token(value)
		if token == "" {
			continue
		}
		id, ok := n.tables.ResolveTag(token)
		if !ok {
			n.miss(fmt.Sprintf("edition_tags[%d]", i), value, "tag")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedMovieIDs(movies []edition.MovieRef) []int {
	ids := make([]int, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.MovieRefID)
	}
	sort.Ints(ids)
	return ids
}
