package validate

import "fmt"

// Kind classifies a violation.
type Kind string

const (
	KindNoMovies           Kind = "no_movies"
	KindDuplicateMovie     Kind = "duplicate_movie"
	KindInvalidSlot        Kind = "invalid_slot"
	KindDuplicateSlot      Kind = "duplicate_slot"
	KindInvalidRole        Kind = "invalid_role"
	KindInvalidFormat      Kind = "invalid_format"
	KindInvalidDiscCount   Kind = "invalid_disc_count"
	KindInvalidDuplicateOf Kind = "invalid_duplicate_of_disc"
	KindUnknownMovieRef    Kind = "unknown_movie_ref"
	KindSurfaceFormat      Kind = "surface_format"
	KindSurfaceCount       Kind = "surface_count"
	KindInvalidSide        Kind = "invalid_side"
	KindDuplicateSide      Kind = "duplicate_side"
	KindIdentityConflict   Kind = "identity_conflict"
	KindHashShape          Kind = "hash_shape"
	KindStructureSlot      Kind = "structure_slot"
	KindStructureCollision Kind = "structure_slot_collision"
	KindStructureRole      Kind = "structure_role"
	KindStructureKey       Kind = "structure_duplicate_key"

	KindUnreadable          Kind = "unreadable"
	KindAmbiguous           Kind = "normalization_ambiguity"
	KindUnresolvedPublisher Kind = "unresolved_publisher"

	KindDuplicateUPC     Kind = "duplicate_upc"
	KindUnknownPublisher Kind = "unknown_publisher"
	KindTagConflict      Kind = "tag_conflict"
)

// Severity separates hard structural violations from advisories.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityAdvisory Severity = "advisory"
)

// Violation is one problem found in one record.
type Violation struct {
	Record   string   `json:"record"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Record, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Record, v.Path, v.Message)
}

// Report groups the violations of one validation run.
type Report struct {
	Violations []Violation `json:"violations"`
	// AdvisoryBlocking promotes advisories to blocking.
	AdvisoryBlocking bool `json:"advisory_blocking"`
}

// Add appends violations to the report.
func (r *Report) Add(v ...Violation) {
	r.Violations = append(r.Violations, v...)
}

// Blocking returns the violations that must prevent hash derivation.
func (r Report) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlocking || r.AdvisoryBlocking {
			out = append(out, v)
		}
	}
	return out
}

// OK reports whether nothing blocks.
func (r Report) OK() bool {
	return len(r.Blocking()) == 0
}

// For returns the violations recorded against record.
func (r Report) For(record string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Record == record {
			out = append(out, v)
		}
	}
	return out
}

// Lines renders one line per violation, advisories marked.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		line := v.String()
		if v.Severity == SeverityAdvisory {
			line = "advisory: " + line
		}
		lines = append(lines, line)
	}
	return lines
}
