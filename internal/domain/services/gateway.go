package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// CreateDocumentRequest describes document creation through the gateway.
// Name may be a slash-joined path; intermediate folders are created.
type CreateDocumentRequest struct {
	ParentID       *string `json:"parent_id"`
	Name           string  `json:"name"`
	InitialText    *string `json:"initial_text"`
	VisibleInShare bool    `json:"visible_in_share"`
	Author         string  `json:"-"`
}

// UpdateContentRequest is a whole-document write from a non-live caller
// (import, AI generation). Exactly one of CanonicalText or Fragment is set.
type UpdateContentRequest struct {
	FileID        string  `json:"-"`
	CanonicalText *string `json:"canonical_text"`
	Fragment      []byte  `json:"fragment"`
	Author        string  `json:"-"`
}

// Gateway is the façade used by external callers. It sequences the tree,
// session and version services and enforces their combined invariants.
type Gateway interface {
	// CreateDocument creates a file node and, when initial text is given,
	// seeds and flushes its content and records version 1.
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Node, error)

	// OpenForEditing attaches a replica to the file's live session.
	OpenForEditing(ctx context.Context, fileID string) (Session, error)

	// UpdateContent writes whole-document content on behalf of a non-live
	// caller and records a version, exactly as a human save would.
	UpdateContent(ctx context.Context, req *UpdateContentRequest) (*models.Version, error)

	// Rename, Move and Delete delegate to the tree service, then refresh or
	// close open sessions in the affected subtree. Delete force-flushes open
	// sessions before the structural delete commits.
	Rename(ctx context.Context, nodeID, newName string) (*models.Node, error)
	Move(ctx context.Context, nodeID string, newParentID *string) (*models.Node, error)
	Delete(ctx context.Context, nodeID string) error

	// RestoreVersion replays an old version's text as a fresh replace-all
	// edit, recorded as a new version. History is never rewritten.
	RestoreVersion(ctx context.Context, fileID, versionID, author string) (*models.Version, error)
}
