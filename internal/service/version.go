package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

// appendRetries bounds retries when a concurrent writer outside this process
// races the same sequence number.
const appendRetries = 3

// lockStripes fixes the size of the per-file lock table. Files hash onto a
// stripe, so memory stays constant no matter how many files the process
// records versions for.
const lockStripes = 64

type versionService struct {
	versionRepo repositories.VersionRepository
	nodeRepo    repositories.NodeRepository
	logger      *slog.Logger

	locks [lockStripes]sync.Mutex
}

// NewVersionService creates the append-only version ledger.
func NewVersionService(
	versionRepo repositories.VersionRepository,
	nodeRepo repositories.NodeRepository,
	logger *slog.Logger,
) services.VersionService {
	return &versionService{
		versionRepo: versionRepo,
		nodeRepo:    nodeRepo,
		logger:      logger,
	}
}

// Record appends a version with sequence = max(existing) + 1. Sequence
// assignment is serialized per lock stripe, so writers to the same file never
// race and unrelated files rarely contend.
func (s *versionService) Record(ctx context.Context, fileID string, text *string, state []byte, author string) (*models.Version, error) {
	node, err := s.nodeRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !node.IsFile() {
		return nil, fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, fileID)
	}

	lock := s.fileLock(fileID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		max, err := s.versionRepo.MaxSequence(ctx, fileID)
		if err != nil {
			return nil, err
		}

		version := &models.Version{
			ID:              uuid.NewString(),
			FileID:          fileID,
			Sequence:        max + 1,
			CanonicalText:   text,
			ReplicatedState: state,
			CreatedAt:       time.Now(),
			CreatedBy:       author,
		}

		err = s.versionRepo.Append(ctx, version)
		if err == nil {
			s.logger.Info("version recorded",
				"file_id", fileID,
				"version_id", version.ID,
				"sequence", version.Sequence,
				"author", author,
			)
			return version, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		// Another writer took this sequence; re-read the maximum and retry.
		lastErr = err
	}

	return nil, lastErr
}

// List returns the file's versions newest first, metadata only.
func (s *versionService) List(ctx context.Context, fileID string) ([]models.Version, error) {
	if _, err := s.nodeRepo.GetByID(ctx, fileID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByFile(ctx, fileID)
}

// Get returns one version with its full payload.
func (s *versionService) Get(ctx context.Context, fileID, versionID string) (*models.Version, error) {
	return s.versionRepo.Get(ctx, fileID, versionID)
}

func (s *versionService) fileLock(fileID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(fileID))
	return &s.locks[h.Sum32()%lockStripes]
}
