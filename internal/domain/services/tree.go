package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// CreateNodeRequest describes a node creation.
type CreateNodeRequest struct {
	ParentID       *string         `json:"parent_id"` // nil = root level
	Kind           models.NodeKind `json:"kind"`
	Name           string          `json:"name"`
	VisibleInShare bool            `json:"visible_in_share"`
}

// TreeService owns the hierarchical namespace: creation, rename, move and
// delete with materialized-path maintenance. No other component mutates
// parent_id or path.
type TreeService interface {
	Create(ctx context.Context, req *CreateNodeRequest) (*models.Node, error)

	Get(ctx context.Context, id string) (*models.Node, error)

	// Rename changes a node's name and recomputes the materialized path of the
	// node and, for folders, every descendant, atomically.
	Rename(ctx context.Context, id, newName string) (*models.Node, error)

	// Move reparents a node. Fails with ErrCycle when the destination is the
	// node itself or one of its descendants.
	Move(ctx context.Context, id string, newParentID *string) (*models.Node, error)

	// Delete removes a node and all descendants, cascading to file contents
	// and version history.
	Delete(ctx context.Context, id string) error

	// Subtree returns the node and all its descendants, parents first.
	Subtree(ctx context.Context, id string) ([]models.Node, error)

	ListChildren(ctx context.Context, parentID *string) ([]models.Node, error)

	// EnsureFolderPath resolves a slash-joined folder path to a folder id,
	// creating missing folders along the way. Empty path means root (nil).
	EnsureFolderPath(ctx context.Context, folderPath string) (*string, error)

	// BuildTree returns the full nested namespace listing, metadata only.
	BuildTree(ctx context.Context) (*models.Tree, error)
}
