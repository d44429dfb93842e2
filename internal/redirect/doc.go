// Package redirect maps retired edition identities to their current
// replacement.
//
// Chains are flattened when a redirect is written, so Resolve is always a
// single map read. The Table is the only shared mutable structure in the
// identity core: readers run concurrently and each Add is one critical
// section, so a reader never observes a partially rewritten chain. FileStore
// persists the table as a single JSON document and serializes writer
// processes with an advisory file lock.
package redirect
