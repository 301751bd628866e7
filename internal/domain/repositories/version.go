package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// VersionRepository stores the append-only per-file history. Rows are
// immutable once written; the (file_id, sequence) pair is unique.
type VersionRepository interface {
	// Append inserts a version row with its sequence already assigned.
	// Returns ErrConflict if the sequence was taken by a concurrent writer.
	Append(ctx context.Context, version *models.Version) error

	// MaxSequence returns the highest sequence recorded for fileID, 0 if none.
	MaxSequence(ctx context.Context, fileID string) (int64, error)

	// ListByFile returns versions for a file in descending sequence order,
	// metadata only (no text or state payloads).
	ListByFile(ctx context.Context, fileID string) ([]models.Version, error)

	// Get returns one version with its full payload.
	Get(ctx context.Context, fileID, versionID string) (*models.Version, error)

	// DeleteByFiles removes all history for the given files (delete cascade).
	DeleteByFiles(ctx context.Context, fileIDs []string) error
}
