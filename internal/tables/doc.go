// Package tables holds the normalization tables consumed by the canonicalizer:
// the publisher registry, packaging synonyms, tag aliases and tag conflict
// pairs.
//
// Tables are curated elsewhere and arrive as a YAML document; this package only
// parses that shape and builds read-only lookup indexes. Aliases are
// append-only by convention: an alias may be added, never repointed, because
// repointing one would silently change identities derived under it.
package tables
