// Package pipeline turns edition records into identities.
//
// Identify runs one record through structural validation, the optional GS1
// publisher fallback, canonicalization and derivation, in that order; a
// record that fails validation is never hashed. Batch fans independent
// records out over a worker pool and layers the advisory cross-record checks
// on the combined result.
package pipeline
