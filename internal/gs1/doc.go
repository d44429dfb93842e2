// Package gs1 resolves UPC/EAN codes to the company that owns their GS1
// company prefix.
//
// The registry is append-only: records are never edited in place, and a
// changed fact is a new record with its own validity window. Resolution picks
// the longest prefix among the records valid at the requested instant.
package gs1
