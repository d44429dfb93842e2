// Package identity derives edition identity strings from canonical bytes.
//
// An identity has the form
//
//	edition:v<version>:<64 lowercase hex sha-256>
//
// Versions form a small closed set. Each one is bound to a frozen
// canonicalization rule set in the canon package; Derive only owns the hash and
// the string format, while VersionForSchema maps document schema versions onto
// hash versions so historical fixtures re-derive under the rules they were
// created with. Only Current is used for new records.
package identity
