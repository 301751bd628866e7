package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// NodeRepository owns the persisted namespace rows. Only the tree service
// mutates parent_id and path through it; everything else reads.
type NodeRepository interface {
	Create(ctx context.Context, node *models.Node) error

	GetByID(ctx context.Context, id string) (*models.Node, error)

	// GetByIDForUpdate is GetByID with the row locked for the remainder of the
	// surrounding transaction, so structural invariants can be re-validated at
	// commit time against concurrent writers.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Node, error)

	// GetChildByName returns the child of parentID (nil = root scope) with the
	// given name, or ErrNotFound.
	GetChildByName(ctx context.Context, parentID *string, name string) (*models.Node, error)

	// ListChildren returns the direct children of parentID (nil = root scope).
	ListChildren(ctx context.Context, parentID *string) ([]models.Node, error)

	// ListSubtree returns the node whose materialized path is path plus all of
	// its descendants, ordered by path so parents precede children.
	ListSubtree(ctx context.Context, path string) ([]models.Node, error)

	ListAll(ctx context.Context) ([]models.Node, error)

	// Update persists name, parent_id, path, visibility and updated_at.
	Update(ctx context.Context, node *models.Node) error

	// UpdateWordCount stores the derived word count for a file node without
	// touching structural columns.
	UpdateWordCount(ctx context.Context, id string, words int) error

	// Delete removes the given nodes. Callers pass a full subtree id set so the
	// namespace never holds an orphan.
	Delete(ctx context.Context, ids []string) error
}
