// Package models defines the domain types for vaultdigest.
package models

import (
	"path"
	"strings"
	"time"
)

// Document is a Markdown file in the vault, addressed by its vault-relative path.
// Content is never held here; it is read through the store on demand.
type Document struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	ModTime   time.Time `json:"mod_time"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NewDocument builds a Document and derives its display name from p.
func NewDocument(p string, modTime, createdAt time.Time) Document {
	return Document{
		Path:      p,
		Name:      DisplayName(p),
		ModTime:   modTime,
		CreatedAt: createdAt,
	}
}

// DisplayName returns the final path segment without its extension.
func DisplayName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
