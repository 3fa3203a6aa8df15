// Package apperr holds the sentinel errors shared across packages.
// Callers wrap them with context and match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrStoreUnavailable means the vault could not be listed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDocumentRead means a single document could not be read.
	ErrDocumentRead = errors.New("document read failed")
	// ErrWrite means the digest destination could not be written.
	ErrWrite = errors.New("write failed")
	// ErrDirectoryCreate is logged by the writer and never returned as fatal.
	ErrDirectoryCreate = errors.New("directory create failed")
	// ErrMismatch means a digest's table of contents disagrees with its sections.
	ErrMismatch = errors.New("table of contents mismatch")
)
