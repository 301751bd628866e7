package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// ContentRepository stores file content rows keyed by file id.
type ContentRepository struct {
	store *Store
}

// NewContentRepository creates a bolt content repository.
func NewContentRepository(store *Store) repositories.ContentRepository {
	return &ContentRepository{store: store}
}

func (r *ContentRepository) Get(ctx context.Context, fileID string) (*models.FileContent, error) {
	var content *models.FileContent
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketContents).Get([]byte(fileID))
		if data == nil {
			return fmt.Errorf("content for file %s: %w", fileID, domain.ErrNotFound)
		}
		content = &models.FileContent{}
		return json.Unmarshal(data, content)
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (r *ContentRepository) Upsert(ctx context.Context, content *models.FileContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketContents).Put([]byte(content.FileID), data); err != nil {
			return fmt.Errorf("store content: %w", err)
		}
		return nil
	})
}

func (r *ContentRepository) Delete(ctx context.Context, fileIDs []string) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketContents)
		for _, id := range fileIDs {
			if err := b.Delete([]byte(id)); err != nil {
				return fmt.Errorf("delete content %s: %w", id, err)
			}
		}
		return nil
	})
}
