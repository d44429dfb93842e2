package gs1

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the maintenance status of a prefix record. It does not affect
// matching.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Confidence describes how much a resolution established.
type Confidence string

const (
	ConfidenceNone        Confidence = "none"
	ConfidenceKnownPrefix Confidence = "known_prefix"
	ConfidencePublisher   Confidence = "publisher"
)

// maxPrefixLen bounds company prefixes to the GTIN-13 body.
const maxPrefixLen = 12

// Record is one immutable registry fact. The record is valid on
// [ValidFrom, ValidTo); a nil ValidTo is open-ended.
type Record struct {
	Prefix      string     `json:"prefix"`
	PublisherID string     `json:"publisher_id,omitempty"`
	CompanyName string     `json:"company_name"`
	BrandName   string     `json:"brand_name,omitempty"`
	Status      Status     `json:"status"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
}

// ValidAt reports whether the record's window contains t.
func (r Record) ValidAt(t time.Time) bool {
	if t.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo == nil || t.Before(*r.ValidTo)
}

// Result is the outcome of a resolution.
type Result struct {
	Prefix      string     `json:"prefix,omitempty"`
	PublisherID string     `json:"publisher_id,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
	BrandName   string     `json:"brand_name,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Verified    bool       `json:"verified"`
	Confidence  Confidence `json:"confidence"`
}

// Registry is an arena of records with a prefix index. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	records  []Record
	byPrefix map[string][]int
}

// NewRegistry builds a registry from records in append order. Every invalid
// record is reported.
func NewRegistry(records ...Record) (*Registry, error) {
	r := &Registry{byPrefix: make(map[string][]int)}
	var errs []error
	for i, rec := range records {
		if err := r.Append(rec); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Append adds a record. Existing records are never modified.
func (r *Registry) Append(rec Record) error {
	rec, err := normalizeRecord(rec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPrefix[rec.Prefix] = append(r.byPrefix[rec.Prefix], len(r.records))
	r.records = append(r.records, rec)
	return nil
}

func normalizeRecord(rec Record) (Record, error) {
	rec.Prefix = strings.TrimSpace(rec.Prefix)
	if rec.Prefix == "" || len(rec.Prefix) > maxPrefixLen || !isDigits(rec.Prefix) {
		return rec, fmt.Errorf("prefix %q must be 1 to %d digits", rec.Prefix, maxPrefixLen)
	}
	rec.PublisherID = strings.TrimSpace(rec.PublisherID)
	rec.CompanyName = strings.TrimSpace(rec.CompanyName)
	rec.BrandName = strings.TrimSpace(rec.BrandName)
	switch Status(strings.ToLower(strings.TrimSpace(string(rec.Status)))) {
	case "", StatusActive:
		rec.Status = StatusActive
	case StatusInactive:
		rec.Status = StatusInactive
	default:
		return rec, fmt.Errorf("prefix %s: unknown status %q", rec.Prefix, rec.Status)
	}
	if rec.ValidTo != nil && !rec.ValidTo.After(rec.ValidFrom) {
		return rec, fmt.Errorf("prefix %s: valid_to %s is not after valid_from %s",
			rec.Prefix, rec.ValidTo.Format(time.DateOnly), rec.ValidFrom.Format(time.DateOnly))
	}
	return rec, nil
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Records returns every record in append order.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Record(nil), r.records...)
}

// History returns the records for prefix in append order.
func (r *Registry) History(prefix string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idxs := r.byPrefix[strings.TrimSpace(prefix)]
	out := make([]Record, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, r.records[i])
	}
	return out
}

// Resolve finds the longest prefix of code whose record is valid at asOf.
// Retired and not-yet-valid records are skipped entirely. When several
// records for one prefix are valid, the latest ValidFrom wins, then the
// latest appended.
//
// A 12-digit UPC-A is matched both as written and in its GTIN-13 form, so
// prefixes recorded either way resolve. The match covering more of the
// code's own digits wins; on a tie the literal form is preferred.
func (r *Registry) Resolve(code string, asOf time.Time) Result {
	literal := digitsOnly(code)
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, n, ok := r.longestAt(literal, asOf)
	if padded := NormalizeGTIN(literal); padded != literal {
		if prec, pn, pok := r.longestAt(padded, asOf); pok && (!ok || pn-1 > n) {
			rec, ok = prec, true
		}
	}
	if !ok {
		return Result{Confidence: ConfidenceNone}
	}
	res := Result{
		Prefix:      rec.Prefix,
		PublisherID: rec.PublisherID,
		CompanyName: rec.CompanyName,
		BrandName:   rec.BrandName,
		Status:      rec.Status,
		Verified:    true,
		Confidence:  ConfidenceKnownPrefix,
	}
	if rec.PublisherID != "" {
		res.Confidence = ConfidencePublisher
	}
	return res
}

// longestAt returns the best record for the longest matching left-substring
// of digits, and that substring's length.
func (r *Registry) longestAt(digits string, asOf time.Time) (Record, int, bool) {
	for l := min(len(digits), maxPrefixLen); l > 0; l-- {
		if rec, ok := r.bestAt(digits[:l], asOf); ok {
			return rec, l, true
		}
	}
	return Record{}, 0, false
}

func (r *Registry) bestAt(prefix string, asOf time.Time) (Record, bool) {
	var best Record
	found := false
	for _, i := range r.byPrefix[prefix] {
		rec := r.records[i]
		if !rec.ValidAt(asOf) {
			continue
		}
		if !found || !rec.ValidFrom.Before(best.ValidFrom) {
			best, found = rec, true
		}
	}
	return best, found
}

// Prefixes returns every distinct prefix, sorted.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byPrefix))
	for p := range r.byPrefix {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizeGTIN strips every non-digit and pads a 12-digit UPC-A code to its
// GTIN-13 form.
func NormalizeGTIN(code string) string {
	digits := digitsOnly(code)
	if len(digits) == 12 {
		return "0" + digits
	}
	return digits
}

func digitsOnly(code string) string {
	var b strings.Builder
	for _, c := range code {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
