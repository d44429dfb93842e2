// Package canon projects an edition onto its identity-significant fields and
// encodes the projection deterministically.
//
// Every hash version owns a separately named, frozen rule set (rules_v1.go
// through rules_v4.go). A rule set is never edited once released: changing
// what participates in identity means adding a new version, a new rule set and
// a redirect for every record that moves. The encoder is RFC 8785 JSON, so
// object keys are ordered lexicographically and the output is byte-stable.
//
// Canonicalize is pure. It reads the supplied tables and the frozen region
// synonyms and nothing else, and is safe to call concurrently.
package canon
