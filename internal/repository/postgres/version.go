package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool *pgxpool.Pool
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(pool *pgxpool.Pool) repositories.VersionRepository {
	return &PostgresVersionRepository{pool: pool}
}

// Append inserts a version row. The (file_id, sequence) unique constraint
// turns a concurrent append at the same sequence into ErrConflict so the
// caller can re-read the maximum and retry.
func (r *PostgresVersionRepository) Append(ctx context.Context, version *models.Version) error {
	query := `
		INSERT INTO versions (id, file_id, sequence, canonical_text, replicated_state, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		version.ID,
		version.FileID,
		version.Sequence,
		version.CanonicalText,
		version.ReplicatedState,
		version.CreatedAt,
		version.CreatedBy,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("version sequence %d for file %s: %w",
				version.Sequence, version.FileID, domain.ErrConflict)
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("file %s: %w", version.FileID, domain.ErrNotFound)
		}
		return fmt.Errorf("append version: %w", err)
	}

	return nil
}

// MaxSequence returns the highest sequence recorded for a file, 0 if none.
func (r *PostgresVersionRepository) MaxSequence(ctx context.Context, fileID string) (int64, error) {
	query := `SELECT COALESCE(MAX(sequence), 0) FROM versions WHERE file_id = $1`

	var max int64
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, fileID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}

	return max, nil
}

// ListByFile lists version metadata newest first, without payloads.
func (r *PostgresVersionRepository) ListByFile(ctx context.Context, fileID string) ([]models.Version, error) {
	query := `
		SELECT id, file_id, sequence, created_at, created_by
		FROM versions
		WHERE file_id = $1
		ORDER BY sequence DESC
	`

	rows, err := getExecutor(ctx, r.pool).Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var version models.Version
		err := rows.Scan(
			&version.ID,
			&version.FileID,
			&version.Sequence,
			&version.CreatedAt,
			&version.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// Get retrieves a full version including payloads.
func (r *PostgresVersionRepository) Get(ctx context.Context, fileID, versionID string) (*models.Version, error) {
	query := `
		SELECT id, file_id, sequence, canonical_text, replicated_state, created_at, created_by
		FROM versions
		WHERE file_id = $1 AND id = $2
	`

	var version models.Version
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, fileID, versionID).Scan(
		&version.ID,
		&version.FileID,
		&version.Sequence,
		&version.CanonicalText,
		&version.ReplicatedState,
		&version.CreatedAt,
		&version.CreatedBy,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s for file %s: %w", versionID, fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return &version, nil
}

// DeleteByFiles removes the history of the given files.
func (r *PostgresVersionRepository) DeleteByFiles(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}

	query := `DELETE FROM versions WHERE file_id = ANY($1)`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query, fileIDs)
	if err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}

	return nil
}
