// Package validate checks edition records before an identity is derived.
//
// Structure enforces the hard structural rules of a single record and is
// always blocking. CrossRecord layers advisory consistency checks over a set
// of records. Neither stops at the first problem; every violation is
// collected so one pass produces a complete report.
package validate
