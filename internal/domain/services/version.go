package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// VersionService is the append-only snapshot ledger. Sequence numbers are
// strictly increasing per file, gap-free, and never reused - even across
// restores.
type VersionService interface {
	// Record appends a version for the file. Safe under concurrent callers
	// for the same file; sequence assignment is serialized per file.
	Record(ctx context.Context, fileID string, text *string, state []byte, author string) (*models.Version, error)

	// List returns the file's versions, newest first, metadata only.
	List(ctx context.Context, fileID string) ([]models.Version, error)

	// Get returns one version with its full payload.
	Get(ctx context.Context, fileID, versionID string) (*models.Version, error)
}
