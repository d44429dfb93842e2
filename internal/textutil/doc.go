// Package textutil provides the string normalization primitives shared by the
// canonicalizer and the registry loaders.
//
// Clean trims and applies Unicode NFC so visually identical strings compare
// equal byte for byte. Token folds a free-form label into the lowercase,
// underscore-separated form used for tag, region and packaging lookups.
package textutil
