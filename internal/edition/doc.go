// Package edition defines the edition record: the unit of identity for a
// packaged home-media release.
//
// Records arrive as JSON documents. Decode checks the document shape against
// an embedded JSON schema (types and required keys only) before decoding it
// into an Edition. Structural rules such as slot uniqueness, role enums and
// surface limits are deliberately left to the validate package so that every
// violation in a record is reported together rather than failing at the first
// malformed key.
//
// Encode renders a stable document for storage: external references are
// sorted by (source, id) purely for diff stability.
package edition
