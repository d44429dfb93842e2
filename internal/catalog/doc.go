// Package catalog persists committed editions and the GS1 prefix history in
// SQLite.
//
// Every edition row is keyed by its identity and keeps the canonical bytes it
// was derived from, so integrity can be re-checked at any time. Superseded
// editions stay in the catalog with a retired_by pointer that mirrors the
// redirect table. GS1 prefix records are append-only; triggers reject updates
// and deletes.
package catalog
