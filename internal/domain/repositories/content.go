package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// ContentRepository stores the 1:1 content row of a file node: the binary
// replicated state and its canonical text projection.
type ContentRepository interface {
	// Get returns the content row for fileID, or ErrNotFound for a file that
	// has never been flushed.
	Get(ctx context.Context, fileID string) (*models.FileContent, error)

	// Upsert writes both forms atomically, creating the row on first flush.
	Upsert(ctx context.Context, content *models.FileContent) error

	// Delete removes content rows for the given files (delete cascade).
	Delete(ctx context.Context, fileIDs []string) error
}
