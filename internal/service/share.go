package service

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

type shareService struct {
	nodeRepo    repositories.NodeRepository
	contentRepo repositories.ContentRepository
	logger      *slog.Logger
}

// NewShareService creates the read-only export/share surface.
func NewShareService(
	nodeRepo repositories.NodeRepository,
	contentRepo repositories.ContentRepository,
	logger *slog.Logger,
) services.ShareService {
	return &shareService{
		nodeRepo:    nodeRepo,
		contentRepo: contentRepo,
		logger:      logger,
	}
}

// Tree returns the namespace listing. With shareOnly set, files not marked
// visible are omitted, and so are folders the filter leaves empty.
func (s *shareService) Tree(ctx context.Context, shareOnly bool) (*models.Tree, error) {
	nodes, err := s.nodeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(nodes)
	if shareOnly {
		filterTree(tree)
	}
	return tree, nil
}

// CanonicalText returns the last flushed plain-text form of a file. A file
// that has never been flushed reads as empty.
func (s *shareService) CanonicalText(ctx context.Context, fileID string) (string, error) {
	node, err := s.nodeRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if !node.IsFile() {
		return "", fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, fileID)
	}

	content, err := s.contentRepo.Get(ctx, fileID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if content.CanonicalText == nil {
		return "", nil
	}
	return *content.CanonicalText, nil
}

// filterTree removes non-shared files and prunes folders left empty.
func filterTree(tree *models.Tree) {
	tree.Files = filterFiles(tree.Files)
	tree.Folders = filterFolders(tree.Folders)
}

func filterFiles(files []models.FileTreeNode) []models.FileTreeNode {
	kept := files[:0]
	for _, f := range files {
		if f.VisibleInShare {
			kept = append(kept, f)
		}
	}
	return kept
}

func filterFolders(folders []*models.FolderTreeNode) []*models.FolderTreeNode {
	kept := folders[:0]
	for _, folder := range folders {
		folder.Files = filterFiles(folder.Files)
		folder.Folders = filterFolders(folder.Folders)
		if len(folder.Files) > 0 || len(folder.Folders) > 0 {
			kept = append(kept, folder)
		}
	}
	return kept
}
