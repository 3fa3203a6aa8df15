// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultdigest/internal/models"

// Provider is the interface for vault file operations.
// All paths are vault-relative and use forward slashes.
type Provider interface {
	// List returns every .md document in the vault in lexical walk order.
	List() ([]models.Document, error)
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// Write atomically replaces the content at path. The parent directory must exist.
	Write(path string, content []byte) error
	// MakeDir creates the directory at path and any missing parents.
	// It returns apperr.ErrAlreadyExists if the directory is already there.
	MakeDir(path string) error
}
