package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// VersionRepository stores the append-only history as a sub-bucket per file,
// keyed by big-endian sequence so cursor order is history order.
type VersionRepository struct {
	store *Store
}

// NewVersionRepository creates a bolt version repository.
func NewVersionRepository(store *Store) repositories.VersionRepository {
	return &VersionRepository{store: store}
}

func (r *VersionRepository) Append(ctx context.Context, version *models.Version) error {
	data, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("marshal version: %w", err)
	}
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		fileBucket, err := tx.Bucket(bucketVersions).CreateBucketIfNotExists([]byte(version.FileID))
		if err != nil {
			return fmt.Errorf("create version bucket: %w", err)
		}

		key := sequenceKey(version.Sequence)
		if fileBucket.Get(key) != nil {
			// Mirrors the (file_id, sequence) unique constraint.
			return fmt.Errorf("version sequence %d for file %s: %w",
				version.Sequence, version.FileID, domain.ErrConflict)
		}
		if err := fileBucket.Put(key, data); err != nil {
			return fmt.Errorf("store version: %w", err)
		}
		return nil
	})
}

func (r *VersionRepository) MaxSequence(ctx context.Context, fileID string) (int64, error) {
	var max int64
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		fileBucket := tx.Bucket(bucketVersions).Bucket([]byte(fileID))
		if fileBucket == nil {
			return nil
		}
		if k, _ := fileBucket.Cursor().Last(); k != nil {
			max = int64(binary.BigEndian.Uint64(k))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}
	return max, nil
}

func (r *VersionRepository) ListByFile(ctx context.Context, fileID string) ([]models.Version, error) {
	var versions []models.Version
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		fileBucket := tx.Bucket(bucketVersions).Bucket([]byte(fileID))
		if fileBucket == nil {
			return nil
		}
		c := fileBucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var version models.Version
			if err := json.Unmarshal(v, &version); err != nil {
				return err
			}
			// Listing is metadata only; drop the heavy payloads.
			version.CanonicalText = nil
			version.ReplicatedState = nil
			versions = append(versions, version)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (r *VersionRepository) Get(ctx context.Context, fileID, versionID string) (*models.Version, error) {
	var found *models.Version
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		fileBucket := tx.Bucket(bucketVersions).Bucket([]byte(fileID))
		if fileBucket == nil {
			return nil
		}
		return fileBucket.ForEach(func(_, v []byte) error {
			var version models.Version
			if err := json.Unmarshal(v, &version); err != nil {
				return err
			}
			if version.ID == versionID {
				found = &version
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("version %s for file %s: %w", versionID, fileID, domain.ErrNotFound)
	}
	return found, nil
}

func (r *VersionRepository) DeleteByFiles(ctx context.Context, fileIDs []string) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVersions)
		for _, id := range fileIDs {
			err := b.DeleteBucket([]byte(id))
			if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("delete versions for file %s: %w", id, err)
			}
		}
		return nil
	})
}

func sequenceKey(seq int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}
