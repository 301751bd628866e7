package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"inkwell/internal/config"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

type treeService struct {
	nodeRepo    repositories.NodeRepository
	contentRepo repositories.ContentRepository
	versionRepo repositories.VersionRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewTreeService creates the namespace service.
func NewTreeService(
	nodeRepo repositories.NodeRepository,
	contentRepo repositories.ContentRepository,
	versionRepo repositories.VersionRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.TreeService {
	return &treeService{
		nodeRepo:    nodeRepo,
		contentRepo: contentRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// SanitizeNodeName replaces path separators so a name cannot inject structure
// into the materialized path.
func SanitizeNodeName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

// JoinPath appends a name to a parent path. An empty parent path means root.
func JoinPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "/" + name
}

// Create creates a file or folder node under the given parent.
func (s *treeService) Create(ctx context.Context, req *services.CreateNodeRequest) (*models.Node, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Normalize empty string to nil for root-level nodes
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	name := SanitizeNodeName(req.Name)

	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent not found: %w", err)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: parent %s is not a folder", domain.ErrValidation, parent.ID)
		}
		parentPath = parent.Path
	}

	if err := s.checkSiblingConflict(ctx, req.ParentID, name, ""); err != nil {
		return nil, err
	}

	path := JoinPath(parentPath, name)
	if len(path) > config.MaxPathLength {
		return nil, fmt.Errorf("%w: path exceeds %d characters", domain.ErrValidation, config.MaxPathLength)
	}

	now := time.Now()
	node := &models.Node{
		ID:             uuid.NewString(),
		ParentID:       req.ParentID,
		Kind:           req.Kind,
		Name:           name,
		Path:           path,
		VisibleInShare: req.VisibleInShare && req.Kind == models.NodeKindFile,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node created",
		"id", node.ID,
		"kind", node.Kind,
		"name", node.Name,
		"path", node.Path,
	)

	return node, nil
}

// Get retrieves a node by id.
func (s *treeService) Get(ctx context.Context, id string) (*models.Node, error) {
	return s.nodeRepo.GetByID(ctx, id)
}

// Rename changes a node's name and recomputes the paths of the node and every
// descendant in one transaction.
func (s *treeService) Rename(ctx context.Context, id, newName string) (*models.Node, error) {
	if err := validateNodeName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := SanitizeNodeName(newName)
	if name == node.Name {
		return node, nil
	}

	if err := s.checkSiblingConflict(ctx, node.ParentID, name, node.ID); err != nil {
		return nil, err
	}

	parentPath := parentPathOf(node.Path, node.Name)
	node.Name = name

	if err := s.applyStructuralChange(ctx, node, parentPath, nil); err != nil {
		return nil, err
	}

	s.logger.Info("node renamed",
		"id", node.ID,
		"name", node.Name,
		"path", node.Path,
	)

	return node, nil
}

// Move reparents a node, cascading the path change to every descendant in one
// transaction.
func (s *treeService) Move(ctx context.Context, id string, newParentID *string) (*models.Node, error) {
	// Normalize empty string to nil for moves to root
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	parentPath := ""
	var guard func(context.Context) error
	if newParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *newParentID)
		if err != nil {
			return nil, fmt.Errorf("destination not found: %w", err)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: destination %s is not a folder", domain.ErrValidation, parent.ID)
		}
		if err := s.validateNoCycle(ctx, id, *newParentID, false); err != nil {
			return nil, err
		}
		parentPath = parent.Path

		// The check above ran against a tree a concurrent move may since have
		// changed, so it is repeated inside the transaction with the ancestor
		// rows locked.
		target := *newParentID
		guard = func(ctx context.Context) error {
			return s.validateNoCycle(ctx, id, target, true)
		}
	}

	if err := s.checkSiblingConflict(ctx, newParentID, node.Name, node.ID); err != nil {
		return nil, err
	}

	node.ParentID = newParentID

	if err := s.applyStructuralChange(ctx, node, parentPath, guard); err != nil {
		return nil, err
	}

	s.logger.Info("node moved",
		"id", node.ID,
		"parent_id", node.ParentID,
		"path", node.Path,
	)

	return node, nil
}

// Delete removes a node and every descendant, cascading to file contents and
// version history, atomically.
func (s *treeService) Delete(ctx context.Context, id string) error {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	subtree, err := s.nodeRepo.ListSubtree(ctx, node.Path)
	if err != nil {
		return err
	}

	var nodeIDs, fileIDs []string
	for _, n := range subtree {
		nodeIDs = append(nodeIDs, n.ID)
		if n.IsFile() {
			fileIDs = append(fileIDs, n.ID)
		}
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.versionRepo.DeleteByFiles(ctx, fileIDs); err != nil {
			return err
		}
		if err := s.contentRepo.Delete(ctx, fileIDs); err != nil {
			return err
		}
		return s.nodeRepo.Delete(ctx, nodeIDs)
	})
	if err != nil {
		return err
	}

	s.logger.Info("node deleted",
		"id", id,
		"path", node.Path,
		"descendants", len(subtree)-1,
	)

	return nil
}

// Subtree returns the node and all its descendants, parents first.
func (s *treeService) Subtree(ctx context.Context, id string) ([]models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.nodeRepo.ListSubtree(ctx, node.Path)
}

// ListChildren lists the direct children of a folder (nil = root).
func (s *treeService) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	if parentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: node %s is not a folder", domain.ErrValidation, parent.ID)
		}
	}
	return s.nodeRepo.ListChildren(ctx, parentID)
}

// EnsureFolderPath resolves a slash-joined folder path to a folder id,
// creating missing folders along the way. Empty path means root (nil).
func (s *treeService) EnsureFolderPath(ctx context.Context, folderPath string) (*string, error) {
	var parentID *string

	for _, segment := range strings.Split(folderPath, "/") {
		if segment == "" {
			continue
		}
		name := SanitizeNodeName(segment)

		existing, err := s.nodeRepo.GetChildByName(ctx, parentID, name)
		if err == nil {
			if !existing.IsFolder() {
				return nil, fmt.Errorf("%w: %q is a file, not a folder", domain.ErrValidation, existing.Path)
			}
			parentID = &existing.ID
			continue
		}

		folder, err := s.Create(ctx, &services.CreateNodeRequest{
			ParentID: parentID,
			Kind:     models.NodeKindFolder,
			Name:     name,
		})
		if err != nil {
			return nil, err
		}
		parentID = &folder.ID
	}

	return parentID, nil
}

// BuildTree returns the full nested namespace listing, metadata only.
func (s *treeService) BuildTree(ctx context.Context) (*models.Tree, error) {
	nodes, err := s.nodeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(nodes), nil
}

// BuildTree assembles a nested listing from a flat node slice in three
// passes: index folders, link folders to parents, attach files.
func BuildTree(nodes []models.Node) *models.Tree {
	tree := &models.Tree{
		Folders: []*models.FolderTreeNode{},
		Files:   []models.FileTreeNode{},
	}

	folderIndex := make(map[string]*models.FolderTreeNode)
	for i := range nodes {
		n := &nodes[i]
		if !n.IsFolder() {
			continue
		}
		folderIndex[n.ID] = &models.FolderTreeNode{
			ID:        n.ID,
			Name:      n.Name,
			ParentID:  n.ParentID,
			Path:      n.Path,
			CreatedAt: n.CreatedAt,
			Folders:   []*models.FolderTreeNode{},
			Files:     []models.FileTreeNode{},
		}
	}

	for _, folder := range folderIndex {
		if folder.ParentID == nil {
			tree.Folders = append(tree.Folders, folder)
			continue
		}
		if parent, ok := folderIndex[*folder.ParentID]; ok {
			parent.Folders = append(parent.Folders, folder)
		} else {
			tree.Folders = append(tree.Folders, folder)
		}
	}

	for i := range nodes {
		n := &nodes[i]
		if !n.IsFile() {
			continue
		}
		file := models.FileTreeNode{
			ID:             n.ID,
			Name:           n.Name,
			ParentID:       n.ParentID,
			Path:           n.Path,
			WordCount:      n.WordCount,
			VisibleInShare: n.VisibleInShare,
			UpdatedAt:      n.UpdatedAt,
		}
		if n.ParentID == nil {
			tree.Files = append(tree.Files, file)
			continue
		}
		if parent, ok := folderIndex[*n.ParentID]; ok {
			parent.Files = append(parent.Files, file)
		} else {
			tree.Files = append(tree.Files, file)
		}
	}

	sortTree(tree)
	return tree
}

func sortTree(tree *models.Tree) {
	sortFolders(tree.Folders)
	sortFiles(tree.Files)
	var walk func([]*models.FolderTreeNode)
	walk = func(folders []*models.FolderTreeNode) {
		for _, f := range folders {
			sortFolders(f.Folders)
			sortFiles(f.Files)
			walk(f.Folders)
		}
	}
	walk(tree.Folders)
}

func sortFolders(folders []*models.FolderTreeNode) {
	for i := 1; i < len(folders); i++ {
		for j := i; j > 0 && folders[j].Name < folders[j-1].Name; j-- {
			folders[j], folders[j-1] = folders[j-1], folders[j]
		}
	}
}

func sortFiles(files []models.FileTreeNode) {
	for i := 1; i < len(files); i++ {
		for j := i; j > 0 && files[j].Name < files[j-1].Name; j-- {
			files[j], files[j-1] = files[j-1], files[j]
		}
	}
}

// applyStructuralChange commits a rename or move: the node row plus the path
// recomputation of every descendant, in one transaction. Each descendant's
// new path derives solely from its own parent's updated path. guard, if set,
// re-validates invariants inside the transaction before anything is written.
func (s *treeService) applyStructuralChange(ctx context.Context, node *models.Node, newParentPath string, guard func(context.Context) error) error {
	oldPath := node.Path
	node.Path = JoinPath(newParentPath, node.Name)
	node.UpdatedAt = time.Now()

	if len(node.Path) > config.MaxPathLength {
		return fmt.Errorf("%w: path exceeds %d characters", domain.ErrValidation, config.MaxPathLength)
	}

	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if guard != nil {
			if err := guard(ctx); err != nil {
				return err
			}
		}

		subtree, err := s.nodeRepo.ListSubtree(ctx, oldPath)
		if err != nil {
			return err
		}

		// Subtree is ordered by path, so a parent's new path is always
		// committed to this map before its children are visited.
		newPaths := map[string]string{node.ID: node.Path}

		if err := s.nodeRepo.Update(ctx, node); err != nil {
			return err
		}

		for i := range subtree {
			desc := subtree[i]
			if desc.ID == node.ID {
				continue
			}
			if desc.ParentID == nil {
				return fmt.Errorf("%w: descendant %s of %s has no parent", domain.ErrInternal, desc.ID, node.ID)
			}
			parentPath, ok := newPaths[*desc.ParentID]
			if !ok {
				return fmt.Errorf("%w: descendant %s visited before parent %s", domain.ErrInternal, desc.ID, *desc.ParentID)
			}
			desc.Path = JoinPath(parentPath, desc.Name)
			desc.UpdatedAt = node.UpdatedAt
			newPaths[desc.ID] = desc.Path
			if err := s.nodeRepo.Update(ctx, &desc); err != nil {
				return err
			}
		}

		return nil
	})
}

// checkSiblingConflict fails with ConflictError when another node with the
// same name already exists under the parent. selfID exempts the node itself
// during renames and moves.
func (s *treeService) checkSiblingConflict(ctx context.Context, parentID *string, name, selfID string) error {
	existing, err := s.nodeRepo.GetChildByName(ctx, parentID, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil // the name is free
	}
	if err != nil {
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("'%s' already exists in this location", name),
		ResourceType: string(existing.Kind),
		ResourceID:   existing.ID,
	}
}

// validateNoCycle ensures a move target is not the node itself or one of its
// descendants, by walking the target's ancestor chain. With lock set the
// chain rows are read under row locks, which a commit-time caller needs to
// fence off concurrent moves of the same nodes.
func (s *treeService) validateNoCycle(ctx context.Context, nodeID, newParentID string, lock bool) error {
	if nodeID == newParentID {
		return &domain.CycleError{NodeID: nodeID, TargetID: newParentID}
	}

	get := s.nodeRepo.GetByID
	if lock {
		get = s.nodeRepo.GetByIDForUpdate
	}

	seen := map[string]bool{newParentID: true}
	currentID := newParentID
	for {
		current, err := get(ctx, currentID)
		if err != nil {
			return err
		}
		if current.ParentID == nil {
			return nil
		}
		if *current.ParentID == nodeID {
			return &domain.CycleError{NodeID: nodeID, TargetID: newParentID}
		}
		currentID = *current.ParentID
		if seen[currentID] {
			return fmt.Errorf("%w: parent chain of %s revisits %s", domain.ErrInternal, newParentID, currentID)
		}
		seen[currentID] = true
	}
}

func (s *treeService) validateCreateRequest(req *services.CreateNodeRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("kind must be 'file' or 'folder'")
	}
	return validateNodeName(req.Name)
}

func validateNodeName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxNodeNameLength),
	)
}

// parentPathOf strips the trailing name segment from a materialized path.
func parentPathOf(path, name string) string {
	if path == name {
		return ""
	}
	return strings.TrimSuffix(path, "/"+name)
}
