package models

import "time"

// FileContent is the 1:1 content row for a file node. ReplicatedState is the
// opaque binary CRDT snapshot; CanonicalText is the plain-text projection of
// the most recently flushed state. Outside the debounce window the two are
// always consistent with each other.
type FileContent struct {
	FileID          string    `json:"file_id" db:"file_id"`
	CanonicalText   *string   `json:"canonical_text" db:"canonical_text"` // nil until first save
	ReplicatedState []byte    `json:"-" db:"replicated_state"`            // empty for a never-edited file
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
