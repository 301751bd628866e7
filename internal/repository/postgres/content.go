package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresContentRepository implements the ContentRepository interface
type PostgresContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new content repository
func NewContentRepository(pool *pgxpool.Pool) repositories.ContentRepository {
	return &PostgresContentRepository{pool: pool}
}

// Get retrieves the content row for a file.
func (r *PostgresContentRepository) Get(ctx context.Context, fileID string) (*models.FileContent, error) {
	query := `
		SELECT file_id, canonical_text, replicated_state, updated_at
		FROM file_contents
		WHERE file_id = $1
	`

	var content models.FileContent
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, fileID).Scan(
		&content.FileID,
		&content.CanonicalText,
		&content.ReplicatedState,
		&content.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("content for file %s: %w", fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}

	return &content, nil
}

// Upsert writes the content row for a file, creating it on first flush.
func (r *PostgresContentRepository) Upsert(ctx context.Context, content *models.FileContent) error {
	query := `
		INSERT INTO file_contents (file_id, canonical_text, replicated_state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id) DO UPDATE
		SET canonical_text = EXCLUDED.canonical_text,
		    replicated_state = EXCLUDED.replicated_state,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		content.FileID,
		content.CanonicalText,
		content.ReplicatedState,
		content.UpdatedAt,
	)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("file %s: %w", content.FileID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert content: %w", err)
	}

	return nil
}

// Delete removes the content rows for the given files.
func (r *PostgresContentRepository) Delete(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}

	query := `DELETE FROM file_contents WHERE file_id = ANY($1)`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query, fileIDs)
	if err != nil {
		return fmt.Errorf("delete contents: %w", err)
	}

	return nil
}
