// Package storage defines the content directory abstraction.
package storage

import "github.com/starford/casefolio/internal/models"

// Provider is the interface for content document operations.
// Documents are addressed by slug; the extension is the provider's concern.
type Provider interface {
	// List returns metadata for every content document in the directory.
	List() ([]models.DocumentInfo, error)
	// Read returns the raw bytes of the document for slug.
	Read(slug string) ([]byte, error)
	// Write atomically writes content for slug.
	Write(slug string, content []byte) error
	// Delete removes the document for slug.
	Delete(slug string) error
	// SlugFor maps a file name to its slug; ok is false for non-content files.
	SlugFor(name string) (slug string, ok bool)
	// Root returns the absolute content directory.
	Root() string
}
