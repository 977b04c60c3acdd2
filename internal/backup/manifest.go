package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// manifestName is the archive entry holding the manifest.
const manifestName = "manifest.json"

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Content summary
	Counts EntityCounts `json:"counts"`

	// What's included
	IncludesImages bool `json:"includes_images"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Users  int `json:"users"`
	Books  int `json:"books"`
	Images int `json:"images,omitempty"`
}
