package catalog

import "errors"

var (
	// ErrNotFound indicates no edition exists for an id, even after
	// redirect resolution.
	ErrNotFound = errors.New("edition not found")
	// ErrIntegrity indicates stored or submitted bytes that do not hash to
	// their identity.
	ErrIntegrity = errors.New("edition integrity violation")
	// ErrAlreadyRetired indicates an edition already superseded by another.
	ErrAlreadyRetired = errors.New("edition already retired")
	// ErrSchemaMismatch indicates the database schema version doesn't match
	// the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
