package catalog

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rasterandstate/majestic-canon/internal/canon"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/logging"
)

// Problem is one integrity failure found by VerifyIntegrity.
type Problem struct {
	ID      identity.ID `json:"edition_id"`
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.ID, p.Kind, p.Message)
}

const (
	ProblemDigest    = "digest_mismatch"
	ProblemDecode    = "document_unreadable"
	ProblemCanonical = "canonical_drift"
	ProblemRetiredBy = "dangling_retirement"
)

// VerifyIntegrity checks every stored edition: the canonical bytes must hash
// to the identity, and the stored document must still canonicalize to those
// bytes under the edition's hash version. All problems are returned together.
func (s *Store) VerifyIntegrity(ctx context.Context, tables canon.Tables) ([]Problem, error) {
	entries, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	known := make(map[identity.ID]bool, len(entries))
	for _, entry := range entries {
		known[entry.ID] = true
	}

	var problems []Problem
	report := func(id identity.ID, kind, format string, args ...any) {
		problems = append(problems, Problem{ID: id, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}
	for _, entry := range entries {
		derived, err := identity.Derive(entry.Canonical, entry.HashVersion)
		if err != nil || derived != entry.ID {
			report(entry.ID, ProblemDigest, "canonical bytes hash to %s", derived)
		}
		if entry.Retired() && !known[entry.RetiredBy] {
			report(entry.ID, ProblemRetiredBy, "retired by unknown edition %s", entry.RetiredBy)
		}

		e, err := entry.Edition()
		if err != nil {
			report(entry.ID, ProblemDecode, "%v", err)
			continue
		}
		canonical, err := canon.Canonicalize(e, entry.HashVersion, tables)
		if err != nil {
			report(entry.ID, ProblemCanonical, "%v", err)
			continue
		}
		if !bytes.Equal(canonical, entry.Canonical) {
			report(entry.ID, ProblemCanonical, "document no longer canonicalizes to the stored form")
		}
	}

	if len(problems) > 0 {
		logging.WarnWithContext(s.logger, "catalog integrity problems found", "catalog_integrity",
			logging.Int("problems", len(problems)),
			logging.Int("editions", len(entries)),
			logging.String(logging.FieldErrorHint, "inspect the listed editions; a hash version change may be required"),
			logging.String(logging.FieldImpact, "affected identities cannot be trusted"))
	}
	return problems, nil
}
