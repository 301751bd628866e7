package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool *pgxpool.Pool
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(pool *pgxpool.Pool) repositories.NodeRepository {
	return &PostgresNodeRepository{pool: pool}
}

const nodeColumns = `id, parent_id, kind, name, path, visible_in_share, word_count, created_at, updated_at`

func scanNode(row pgx.Row, node *models.Node) error {
	return row.Scan(
		&node.ID,
		&node.ParentID,
		&node.Kind,
		&node.Name,
		&node.Path,
		&node.VisibleInShare,
		&node.WordCount,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
}

// Create inserts a new node row.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := `
		INSERT INTO nodes (id, parent_id, kind, name, path, visible_in_share, word_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		node.ID,
		node.ParentID,
		node.Kind,
		node.Name,
		node.Path,
		node.VisibleInShare,
		node.WordCount,
		node.CreatedAt,
		node.UpdatedAt,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("node '%s' already exists: %w", node.Path, domain.ErrConflict)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM nodes WHERE id = $1`, nodeColumns)
	return r.getByID(ctx, query, id)
}

// GetByIDForUpdate retrieves a node and row-locks it so a concurrent
// transaction mutating the same row blocks until this one commits. The
// re-read after the lock is granted sees the latest committed version.
func (r *PostgresNodeRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM nodes WHERE id = $1 FOR UPDATE`, nodeColumns)
	return r.getByID(ctx, query, id)
}

func (r *PostgresNodeRepository) getByID(ctx context.Context, query, id string) (*models.Node, error) {
	var node models.Node
	err := scanNode(getExecutor(ctx, r.pool).QueryRow(ctx, query, id), &node)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// GetChildByName retrieves the child of parentID (nil = root scope) by name.
func (r *PostgresNodeRepository) GetChildByName(ctx context.Context, parentID *string, name string) (*models.Node, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`SELECT %s FROM nodes WHERE parent_id IS NULL AND name = $1`, nodeColumns)
		args = []any{name}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM nodes WHERE parent_id = $1 AND name = $2`, nodeColumns)
		args = []any{*parentID, name}
	}

	var node models.Node
	err := scanNode(getExecutor(ctx, r.pool).QueryRow(ctx, query, args...), &node)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("child %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get child by name: %w", err)
	}

	return &node, nil
}

// ListChildren lists the direct children of parentID (nil = root scope).
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`SELECT %s FROM nodes WHERE parent_id IS NULL ORDER BY name`, nodeColumns)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM nodes WHERE parent_id = $1 ORDER BY name`, nodeColumns)
		args = []any{*parentID}
	}

	return r.list(ctx, query, args...)
}

// ListSubtree lists a node and all of its descendants by materialized path,
// ordered so parents precede children.
func (r *PostgresNodeRepository) ListSubtree(ctx context.Context, path string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM nodes
		WHERE path = $1 OR path LIKE $2
		ORDER BY path
	`, nodeColumns)

	return r.list(ctx, query, path, likeEscape(path)+"/%")
}

// ListAll lists every node ordered by path.
func (r *PostgresNodeRepository) ListAll(ctx context.Context) ([]models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM nodes ORDER BY path`, nodeColumns)
	return r.list(ctx, query)
}

// Update persists name, parent_id, path, visibility and updated_at.
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := `
		UPDATE nodes
		SET parent_id = $1, name = $2, path = $3, visible_in_share = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		node.ParentID,
		node.Name,
		node.Path,
		node.VisibleInShare,
		node.UpdatedAt,
		node.ID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("node '%s' already exists: %w", node.Path, domain.ErrConflict)
		}
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdateWordCount stores the derived word count without touching structural columns.
func (r *PostgresNodeRepository) UpdateWordCount(ctx context.Context, id string, words int) error {
	query := `UPDATE nodes SET word_count = $1 WHERE id = $2`

	result, err := getExecutor(ctx, r.pool).Exec(ctx, query, words, id)
	if err != nil {
		return fmt.Errorf("update word count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the given nodes.
func (r *PostgresNodeRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM nodes WHERE id = ANY($1)`

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}

	return nil
}

func (r *PostgresNodeRepository) list(ctx context.Context, query string, args ...any) ([]models.Node, error) {
	rows, err := getExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := scanNode(rows, &node); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// likeEscape escapes LIKE metacharacters so a literal path can anchor a
// prefix pattern.
func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
