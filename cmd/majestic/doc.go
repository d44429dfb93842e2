// Package main hosts the majestic CLI entrypoint and command graph.
//
// The Cobra command tree validates and identifies edition documents, resolves
// retired identities through the redirect table, queries the GS1 prefix
// registry, and maintains the edition catalog. Configuration loading, table
// and registry discovery, and logger setup live in the command context so
// subcommands stay declarative; the behavior itself belongs to the internal
// packages.
package main
