// Package config loads, normalizes, and validates majestic configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MAJESTIC_LOG_LEVEL environment
// fallback. The Config type names every input the identity core consumes but
// does not own: the normalization tables document, the GS1 prefix registry,
// the redirect table document and the catalog database.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, a supported hash version and canonical log formats.
package config
