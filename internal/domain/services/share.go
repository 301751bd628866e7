package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// ShareService is the read-only surface for export and share-link serving.
// It never touches replicated state.
type ShareService interface {
	// Tree returns the namespace listing. When shareOnly is set, files not
	// marked visible_in_share are omitted (and so are folders left empty by
	// the filter).
	Tree(ctx context.Context, shareOnly bool) (*models.Tree, error)

	// CanonicalText returns the last flushed plain-text form of a file.
	CanonicalText(ctx context.Context, fileID string) (string, error)
}
