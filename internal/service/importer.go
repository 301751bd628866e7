package service

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"inkwell/internal/domain/models"
	"inkwell/internal/domain/services"
)

type importService struct {
	tree    services.TreeService
	gateway services.Gateway
	logger  *slog.Logger
}

// NewImportService creates the import collaborator. It ingests externally
// discovered files one at a time, creating intermediate folders and
// tolerating partial failure per file.
func NewImportService(
	tree services.TreeService,
	gateway services.Gateway,
	logger *slog.Logger,
) services.ImportService {
	return &importService{
		tree:    tree,
		gateway: gateway,
		logger:  logger,
	}
}

// Import processes every file, continuing past failures and reporting
// per-file outcomes.
func (s *importService) Import(ctx context.Context, files []services.ImportFile, author string) (*services.ImportResult, error) {
	result := &services.ImportResult{
		Summary: services.ImportSummary{TotalFiles: len(files)},
		Errors:  []services.ImportError{},
	}

	for _, file := range files {
		created, err := s.importOne(ctx, file, author)
		if err != nil {
			result.Summary.Failed++
			result.Errors = append(result.Errors, services.ImportError{
				Path:  file.Path,
				Error: err.Error(),
			})
			s.logger.Warn("import file failed",
				"path", file.Path,
				"error", err,
			)
			continue
		}
		if created {
			result.Summary.Created++
		} else {
			result.Summary.Updated++
		}
	}

	s.logger.Info("import completed",
		"total", result.Summary.TotalFiles,
		"created", result.Summary.Created,
		"updated", result.Summary.Updated,
		"failed", result.Summary.Failed,
	)

	return result, nil
}

// importOne creates or updates a single file. Returns true when a new file
// node was created.
func (s *importService) importOne(ctx context.Context, file services.ImportFile, author string) (bool, error) {
	dir, name := path.Split(strings.Trim(file.Path, "/"))

	parentID, err := s.tree.EnsureFolderPath(ctx, dir)
	if err != nil {
		return false, err
	}

	existing, err := s.findFile(ctx, parentID, SanitizeNodeName(name))
	if err != nil {
		return false, err
	}

	if existing != nil {
		_, err := s.gateway.UpdateContent(ctx, &services.UpdateContentRequest{
			FileID:        existing.ID,
			CanonicalText: &file.Content,
			Author:        author,
		})
		return false, err
	}

	_, err = s.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		ParentID:    parentID,
		Name:        name,
		InitialText: &file.Content,
		Author:      author,
	})
	return true, err
}

func (s *importService) findFile(ctx context.Context, parentID *string, name string) (*models.Node, error) {
	children, err := s.tree.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].Name == name && children[i].IsFile() {
			return &children[i], nil
		}
	}
	return nil, nil
}
