// Package models defines the shared domain types for Ansuz.
package models

import "time"

// DocMetadata is a lightweight description of an outline document on
// disk, returned by list operations.
type DocMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
