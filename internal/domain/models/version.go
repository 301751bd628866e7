package models

import "time"

// Version is one immutable entry in a file's append-only history. Sequence is
// monotonic per file, starts at 1 and is gap-free; rows are never updated or
// deleted, restores append rather than rewrite.
type Version struct {
	ID              string    `json:"id" db:"id"`
	FileID          string    `json:"file_id" db:"file_id"`
	Sequence        int64     `json:"sequence" db:"sequence"`
	CanonicalText   *string   `json:"canonical_text,omitempty" db:"canonical_text"`
	ReplicatedState []byte    `json:"-" db:"replicated_state"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	CreatedBy       string    `json:"created_by" db:"created_by"`
}
