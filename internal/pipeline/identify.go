package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rasterandstate/majestic-canon/internal/canon"
	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/gs1"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/tables"
	"github.com/rasterandstate/majestic-canon/internal/validate"
)

// ErrNoPublisher indicates a record with no publisher that the GS1 fallback
// could not fill.
var ErrNoPublisher = errors.New("publisher unresolved")

// Options configures identification.
type Options struct {
	Version     identity.Version
	Tables      *tables.Tables
	Registry    *gs1.Registry
	GS1Fallback bool
	AsOf        time.Time
}

func (o Options) withDefaults() Options {
	if o.Version == 0 {
		o.Version = identity.Current
	}
	if o.Tables == nil {
		o.Tables = tables.Empty()
	}
	if o.AsOf.IsZero() {
		o.AsOf = time.Now().UTC()
	}
	return o
}

// Result is the outcome for one record. Either Violations/Err is set or ID
// is.
type Result struct {
	Record     string               `json:"record"`
	ID         identity.ID          `json:"edition_id,omitempty"`
	Version    identity.Version     `json:"hash_version,omitempty"`
	Canonical  string               `json:"canonical,omitempty"`
	GS1        *gs1.Result          `json:"gs1,omitempty"`
	Violations []validate.Violation `json:"violations,omitempty"`
	Err        error                `json:"-"`

	edition *edition.Edition
}

// OK reports whether an identity was derived.
func (r Result) OK() bool {
	return r.ID != ""
}

// Edition returns the edition that was hashed, including any publisher
// filled in by the GS1 fallback.
func (r Result) Edition() *edition.Edition {
	return r.edition
}

// Submission packages a successful result for the catalog.
func (r Result) Submission() (catalog.Submission, error) {
	if !r.OK() {
		return catalog.Submission{}, fmt.Errorf("%s has no identity", r.Record)
	}
	return catalog.Submission{
		ID:        r.ID,
		Version:   r.Version,
		Canonical: []byte(r.Canonical),
		Edition:   r.edition,
	}, nil
}

// Problems renders every blocking issue of the result as violations, so
// decode failures and normalization ambiguities report the same way as
// structural ones.
func (r Result) Problems() []validate.Violation {
	out := append([]validate.Violation(nil), r.Violations...)
	if r.Err == nil {
		return out
	}
	blocking := func(kind validate.Kind, path, msg string) {
		out = append(out, validate.Violation{
			Record:   r.Record,
			Kind:     kind,
			Severity: validate.SeverityBlocking,
			Path:     path,
			Message:  msg,
		})
	}
	var ambiguity *canon.AmbiguityError
	switch {
	case errors.As(r.Err, &ambiguity):
		for _, p := range ambiguity.Problems {
			blocking(validate.KindAmbiguous, p.Field, fmt.Sprintf("%q not present in %s table", p.Value, p.Table))
		}
	case errors.Is(r.Err, ErrNoPublisher):
		blocking(validate.KindUnresolvedPublisher, "publisher", r.Err.Error())
	default:
		blocking(validate.KindUnreadable, "", r.Err.Error())
	}
	return out
}

// Identify validates e and, when it is structurally sound, derives its
// identity. e is never modified.
func Identify(record string, e *edition.Edition, opts Options) Result {
	opts = opts.withDefaults()
	res := Result{Record: record}

	if res.Violations = validate.Structure(record, e); len(res.Violations) > 0 {
		return res
	}

	working := e
	if strings.TrimSpace(e.Publisher) == "" {
		if opts.GS1Fallback && opts.Registry != nil && edition.NormalizeUPC(e.UPC) != "" {
			match := opts.Registry.Resolve(e.UPC, opts.AsOf)
			res.GS1 = &match
			if match.Confidence == gs1.ConfidencePublisher {
				cp := *e
				cp.Publisher = match.PublisherID
				working = &cp
			}
		}
		if strings.TrimSpace(working.Publisher) == "" {
			res.Err = fmt.Errorf("%w: record names no publisher and upc %q has no registered owner", ErrNoPublisher, e.UPC)
			return res
		}
	}
	res.edition = working

	canonical, err := canon.Canonicalize(working, opts.Version, opts.Tables)
	if err != nil {
		res.Err = err
		return res
	}
	id, err := identity.Derive(canonical, opts.Version)
	if err != nil {
		res.Err = err
		return res
	}
	res.ID = id
	res.Version = opts.Version
	res.Canonical = string(canonical)
	return res
}
