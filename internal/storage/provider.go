// Package storage defines the file-system abstraction over the documents
// directory and export targets.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for document and artifact file operations.
type Provider interface {
	// List returns metadata for every .org file under dir (relative to root).
	List(dir string) ([]models.DocMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root),
	// creating parent directories as needed.
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
