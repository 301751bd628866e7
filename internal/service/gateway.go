package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/services"
)

type gateway struct {
	tree     services.TreeService
	sessions services.SessionManager
	versions services.VersionService
	logger   *slog.Logger
}

// NewGateway creates the façade that sequences the tree, session and version
// services for external callers.
func NewGateway(
	tree services.TreeService,
	sessions services.SessionManager,
	versions services.VersionService,
	logger *slog.Logger,
) services.Gateway {
	return &gateway{
		tree:     tree,
		sessions: sessions,
		versions: versions,
		logger:   logger,
	}
}

// CreateDocument creates a file node, creating intermediate folders when the
// name is a slash-joined path. Initial text is seeded, flushed, and recorded
// as version 1.
func (g *gateway) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Node, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	parentID := req.ParentID
	segments := strings.Split(req.Name, "/")
	name := segments[len(segments)-1]

	for _, segment := range segments[:len(segments)-1] {
		if segment == "" {
			continue
		}
		id, err := g.ensureFolder(ctx, parentID, segment)
		if err != nil {
			return nil, err
		}
		parentID = id
	}

	node, err := g.tree.Create(ctx, &services.CreateNodeRequest{
		ParentID:       parentID,
		Kind:           models.NodeKindFile,
		Name:           name,
		VisibleInShare: req.VisibleInShare,
	})
	if err != nil {
		return nil, err
	}

	if req.InitialText != nil {
		text, state, err := g.sessions.UpdateText(ctx, node.ID, *req.InitialText)
		if err != nil {
			return nil, err
		}
		if _, err := g.versions.Record(ctx, node.ID, &text, state, req.Author); err != nil {
			return nil, err
		}
	}

	return node, nil
}

// OpenForEditing attaches a replica to the file's live session.
func (g *gateway) OpenForEditing(ctx context.Context, fileID string) (services.Session, error) {
	return g.sessions.Open(ctx, fileID, nil)
}

// UpdateContent writes whole-document content on behalf of a non-live caller
// and records a version, exactly as a human save would.
func (g *gateway) UpdateContent(ctx context.Context, req *services.UpdateContentRequest) (*models.Version, error) {
	if (req.CanonicalText == nil) == (req.Fragment == nil) {
		return nil, fmt.Errorf("%w: exactly one of canonical_text or fragment must be set", domain.ErrValidation)
	}

	var (
		text  string
		state []byte
		err   error
	)
	if req.CanonicalText != nil {
		text, state, err = g.sessions.UpdateText(ctx, req.FileID, *req.CanonicalText)
	} else {
		text, state, err = g.sessions.ApplyFragment(ctx, req.FileID, req.Fragment)
	}
	if err != nil {
		return nil, err
	}

	return g.versions.Record(ctx, req.FileID, &text, state, req.Author)
}

// Rename delegates to the tree service, then refreshes the cached paths of
// any open sessions in the renamed subtree.
func (g *gateway) Rename(ctx context.Context, nodeID, newName string) (*models.Node, error) {
	node, err := g.tree.Rename(ctx, nodeID, newName)
	if err != nil {
		return nil, err
	}
	if err := g.refreshSubtreePaths(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Move delegates to the tree service, then refreshes the cached paths of any
// open sessions in the moved subtree.
func (g *gateway) Move(ctx context.Context, nodeID string, newParentID *string) (*models.Node, error) {
	node, err := g.tree.Move(ctx, nodeID, newParentID)
	if err != nil {
		return nil, err
	}
	if err := g.refreshSubtreePaths(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Delete force-closes (flushing) every open session in the subtree before
// the structural delete commits.
func (g *gateway) Delete(ctx context.Context, nodeID string) error {
	subtree, err := g.tree.Subtree(ctx, nodeID)
	if err != nil {
		return err
	}

	for _, n := range subtree {
		if n.IsFile() && g.sessions.HasSession(n.ID) {
			if err := g.sessions.ForceClose(ctx, n.ID); err != nil {
				return fmt.Errorf("flush open session for %s: %w", n.ID, err)
			}
		}
	}

	return g.tree.Delete(ctx, nodeID)
}

// RestoreVersion replays an old version's text as a fresh replace-all edit,
// recorded as a new version. Ledger entries are never mutated.
func (g *gateway) RestoreVersion(ctx context.Context, fileID, versionID, author string) (*models.Version, error) {
	version, err := g.versions.Get(ctx, fileID, versionID)
	if err != nil {
		return nil, err
	}

	restoredText := ""
	if version.CanonicalText != nil {
		restoredText = *version.CanonicalText
	}

	text, state, err := g.sessions.UpdateText(ctx, fileID, restoredText)
	if err != nil {
		return nil, err
	}

	restored, err := g.versions.Record(ctx, fileID, &text, state, author)
	if err != nil {
		return nil, err
	}

	g.logger.Info("version restored",
		"file_id", fileID,
		"from_version", versionID,
		"new_version", restored.ID,
		"sequence", restored.Sequence,
	)

	return restored, nil
}

// ensureFolder returns the id of the named folder under parentID, creating it
// if absent. An existing file with that name is an error.
func (g *gateway) ensureFolder(ctx context.Context, parentID *string, name string) (*string, error) {
	folder, err := g.tree.Create(ctx, &services.CreateNodeRequest{
		ParentID: parentID,
		Kind:     models.NodeKindFolder,
		Name:     name,
	})
	if err == nil {
		return &folder.ID, nil
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		existing, getErr := g.tree.Get(ctx, conflict.ResourceID)
		if getErr != nil {
			return nil, getErr
		}
		if !existing.IsFolder() {
			return nil, fmt.Errorf("%w: %q is a file, not a folder", domain.ErrValidation, existing.Path)
		}
		return &existing.ID, nil
	}

	return nil, err
}

func (g *gateway) refreshSubtreePaths(ctx context.Context, node *models.Node) error {
	if node.IsFile() {
		g.sessions.RefreshPath(node.ID, node.Path)
		return nil
	}

	subtree, err := g.tree.Subtree(ctx, node.ID)
	if err != nil {
		return err
	}
	for _, n := range subtree {
		if n.IsFile() {
			g.sessions.RefreshPath(n.ID, n.Path)
		}
	}
	return nil
}
