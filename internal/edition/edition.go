package edition

import (
	"encoding/json"
	"strings"
)

// Format is the physical disc format.
type Format string

const (
	FormatUHD    Format = "UHD"
	FormatBluRay Format = "BLURAY"
	FormatDVD    Format = "DVD"
	FormatCD     Format = "CD"
	FormatOther  Format = "OTHER"
)

var formats = map[string]Format{
	"UHD":    FormatUHD,
	"BLURAY": FormatBluRay,
	"DVD":    FormatDVD,
	"CD":     FormatCD,
	"OTHER":  FormatOther,
}

// ParseFormat normalizes case and whitespace and reports whether the value is
// one of the defined formats.
func ParseFormat(value string) (Format, bool) {
	f, ok := formats[strings.ToUpper(strings.TrimSpace(value))]
	return f, ok
}

// Role classifies a disc or a disc structure within an edition.
type Role string

const (
	RoleFeature       Role = "feature"
	RoleFeatureSDCopy Role = "feature_sd_copy"
	RoleBonus         Role = "bonus"
	RoleSoundtrack    Role = "soundtrack"
	RoleUnknown       Role = "unknown"
)

var roles = map[string]Role{
	"feature":         RoleFeature,
	"feature_sd_copy": RoleFeatureSDCopy,
	"bonus":           RoleBonus,
	"soundtrack":      RoleSoundtrack,
	"unknown":         RoleUnknown,
}

// ParseRole normalizes case and surrounding whitespace and reports whether
// the value is a defined role.
func ParseRole(value string) (Role, bool) {
	r, ok := roles[strings.ToLower(strings.TrimSpace(value))]
	return r, ok
}

// PackagingType is the closed set of packaging kinds.
type PackagingType string

const (
	PackagingKeepcase  PackagingType = "keepcase"
	PackagingSteelbook PackagingType = "steelbook"
	PackagingDigipak   PackagingType = "digipak"
	PackagingSlipcover PackagingType = "slipcover"
	PackagingBoxset    PackagingType = "boxset"
	PackagingOther     PackagingType = "other"
)

// PackagingTypes lists every packaging kind in a fixed order.
var PackagingTypes = []PackagingType{
	PackagingKeepcase,
	PackagingSteelbook,
	PackagingDigipak,
	PackagingSlipcover,
	PackagingBoxset,
	PackagingOther,
}

// Side labels the playable surface of a double-sided DVD.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// MovieRef points at a movie record. Only MovieRefID is identity-significant;
// Title and Year are informational.
type MovieRef struct {
	MovieRefID int    `json:"movie_ref_id"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Packaging describes the retail packaging.
type Packaging struct {
	Type  string `json:"type"`
	Notes string `json:"notes,omitempty"` // not identity-significant
}

// DiscIdentity carries content-addressed hashes for a disc or one surface.
type DiscIdentity struct {
	StructureHash string `json:"structure_hash,omitempty"`
	ContentHash   string `json:"content_hash,omitempty"`
}

// Empty reports whether no hash is set.
func (d *DiscIdentity) Empty() bool {
	if d == nil {
		return true
	}
	return strings.TrimSpace(d.StructureHash) == "" && strings.TrimSpace(d.ContentHash) == ""
}

// Surface is one playable side of a disc. Only meaningful for DVDs.
type Surface struct {
	Side         string        `json:"side"`
	DiscIdentity *DiscIdentity `json:"disc_identity,omitempty"`
}

// Disc is one entry in the curated disc list. DiscCount > 1 denotes N
// physically identical discs, not distinct ones.
type Disc struct {
	Format          string        `json:"format"`
	DiscCount       int           `json:"disc_count"`
	Region          string        `json:"region,omitempty"`
	MovieRefID      *int          `json:"movie_ref_id,omitempty"`
	Slot            *int          `json:"slot,omitempty"`
	Role            string        `json:"role,omitempty"`
	DuplicateOfDisc *int          `json:"duplicate_of_disc,omitempty"`
	Surfaces        []Surface     `json:"surfaces,omitempty"`
	DiscIdentity    *DiscIdentity `json:"disc_identity,omitempty"`
	Languages       []string      `json:"languages,omitempty"` // not identity-significant
}

// UnmarshalJSON defaults DiscCount to 1 when the key is absent.
func (d *Disc) UnmarshalJSON(data []byte) error {
	type alias Disc
	tmp := alias{DiscCount: 1}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*d = Disc(tmp)
	return nil
}

// DiscStructureEntry maps a structural hash to the disc slot it describes.
type DiscStructureEntry struct {
	Slot int    `json:"slot"`
	Role string `json:"role"`
}

// ExternalRef links the edition to an outside catalog entry.
type ExternalRef struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// Edition is a specific packaged release of one or more films.
type Edition struct {
	SchemaVersion  string                        `json:"schema_version,omitempty"`
	Movies         []MovieRef                    `json:"movies"`
	ReleaseYear    int                           `json:"release_year"`
	Publisher      string                        `json:"publisher"`
	Packaging      Packaging                     `json:"packaging"`
	UPC            string                        `json:"upc,omitempty"`
	Discs          []Disc                        `json:"discs"`
	EditionTags    []string                      `json:"edition_tags,omitempty"`
	DiscStructures map[string]DiscStructureEntry `json:"disc_structures,omitempty"`
	Notes          string                        `json:"notes,omitempty"`
	ExternalRefs   []ExternalRef                 `json:"external_refs,omitempty"`
}

// NormalizeUPC trims the value and strips every non-digit. Leading zeros are
// preserved.
func NormalizeUPC(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasMovie reports whether id is one of the edition's movies.
func (e *Edition) HasMovie(id int) bool {
	for _, m := range e.Movies {
		if m.MovieRefID == id {
			return true
		}
	}
	return false
}
