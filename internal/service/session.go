package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/crdt"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

// liveSession is the single in-memory state of one open file. All attached
// replica handles share it.
type liveSession struct {
	fileID string
	state  *crdt.State

	mu          sync.Mutex
	path        string
	replicas    int
	lastFlushed *string // last durably stored text, for skip-if-identical
}

// sessionHandle is one replica's view onto a live session.
type sessionHandle struct {
	manager *sessionManager
	live    *liveSession

	mu     sync.Mutex
	closed bool
}

func (h *sessionHandle) FileID() string { return h.live.fileID }

func (h *sessionHandle) Path() string {
	h.live.mu.Lock()
	defer h.live.mu.Unlock()
	return h.live.path
}

func (h *sessionHandle) ApplyUpdate(fragment []byte) error {
	if err := h.live.state.ApplyUpdate(fragment); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	h.manager.coalescer.MarkDirty(h.live.fileID)
	return nil
}

func (h *sessionHandle) Snapshot() []byte { return h.live.state.Encode() }

func (h *sessionHandle) Text() string { return h.live.state.Text() }

func (h *sessionHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	return h.manager.closeReplica(ctx, h.live)
}

type sessionManager struct {
	nodeRepo    repositories.NodeRepository
	contentRepo repositories.ContentRepository
	coalescer   *Coalescer
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewSessionManager creates the session manager and its persistence
// coalescer. onError receives asynchronous flush failures; it may be nil.
func NewSessionManager(
	nodeRepo repositories.NodeRepository,
	contentRepo repositories.ContentRepository,
	quiet, maxWait time.Duration,
	clock Clock,
	sched Scheduler,
	onError ErrorFunc,
	logger *slog.Logger,
) services.SessionManager {
	m := &sessionManager{
		nodeRepo:    nodeRepo,
		contentRepo: contentRepo,
		logger:      logger,
		sessions:    make(map[string]*liveSession),
	}
	m.coalescer = NewCoalescer(quiet, maxWait, clock, sched, m.flushFile, onError, logger)
	return m
}

// Open attaches a replica to the file's session, creating the session from
// durable state (or the seed text) when none is live.
func (m *sessionManager) Open(ctx context.Context, fileID string, opts *services.OpenOptions) (services.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if live, ok := m.sessions[fileID]; ok {
		live.mu.Lock()
		live.replicas++
		live.mu.Unlock()
		return &sessionHandle{manager: m, live: live}, nil
	}

	node, err := m.nodeRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !node.IsFile() {
		return nil, fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, fileID)
	}

	var seed *string
	if opts != nil {
		seed = opts.InitialText
	}
	state, lastFlushed, err := m.loadState(ctx, fileID, seed)
	if err != nil {
		return nil, err
	}

	live := &liveSession{
		fileID:      fileID,
		state:       state,
		path:        node.Path,
		replicas:    1,
		lastFlushed: lastFlushed,
	}
	m.sessions[fileID] = live

	m.logger.Debug("session opened", "file_id", fileID, "path", node.Path)

	return &sessionHandle{manager: m, live: live}, nil
}

// UpdateText performs a whole-document replace on behalf of a non-live writer
// and flushes immediately.
func (m *sessionManager) UpdateText(ctx context.Context, fileID, text string) (string, []byte, error) {
	return m.writeThrough(ctx, fileID, func(state *crdt.State) error {
		_, err := state.ReplaceAll(uuid.NewString(), text)
		return err
	})
}

// ApplyFragment merges a fragment on behalf of a non-live writer and flushes
// immediately.
func (m *sessionManager) ApplyFragment(ctx context.Context, fileID string, fragment []byte) (string, []byte, error) {
	return m.writeThrough(ctx, fileID, func(state *crdt.State) error {
		if err := state.ApplyUpdate(fragment); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return nil
	})
}

// ForceClose flushes and drops the file's session regardless of attached
// replicas. The flush must land before the session is freed.
func (m *sessionManager) ForceClose(ctx context.Context, fileID string) error {
	m.mu.Lock()
	_, ok := m.sessions[fileID]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := m.coalescer.FlushNow(ctx, fileID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, fileID)
	m.mu.Unlock()
	m.coalescer.Cancel(fileID)

	m.logger.Debug("session force-closed", "file_id", fileID)
	return nil
}

// RefreshPath updates the cached presentation path after a rename or move.
// The file identity is stable; only presentation metadata changes.
func (m *sessionManager) RefreshPath(fileID, path string) {
	m.mu.Lock()
	live, ok := m.sessions[fileID]
	m.mu.Unlock()
	if !ok {
		return
	}
	live.mu.Lock()
	live.path = path
	live.mu.Unlock()
}

func (m *sessionManager) HasSession(fileID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[fileID]
	return ok
}

func (m *sessionManager) closeReplica(ctx context.Context, live *liveSession) error {
	live.mu.Lock()
	live.replicas--
	last := live.replicas == 0
	live.mu.Unlock()

	if !last {
		return nil
	}

	// Final flush. On failure the session stays resident and dirty so the
	// coalescer retries; durable state is never silently stale.
	if err := m.coalescer.FlushNow(ctx, live.fileID); err != nil {
		m.coalescer.MarkDirty(live.fileID)
		return err
	}

	m.mu.Lock()
	live.mu.Lock()
	if live.replicas == 0 && m.sessions[live.fileID] == live {
		delete(m.sessions, live.fileID)
	}
	live.mu.Unlock()
	m.mu.Unlock()

	m.logger.Debug("session closed", "file_id", live.fileID)
	return nil
}

// writeThrough applies an edit to the live session if one exists, otherwise
// to a transient state loaded from durable storage, and persists the result
// immediately.
func (m *sessionManager) writeThrough(ctx context.Context, fileID string, edit func(*crdt.State) error) (string, []byte, error) {
	m.mu.Lock()
	live := m.sessions[fileID]
	m.mu.Unlock()

	if live != nil {
		if err := edit(live.state); err != nil {
			return "", nil, err
		}
		if err := m.coalescer.FlushNow(ctx, fileID); err != nil {
			return "", nil, err
		}
		return live.state.Text(), live.state.Encode(), nil
	}

	node, err := m.nodeRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", nil, err
	}
	if !node.IsFile() {
		return "", nil, fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, fileID)
	}

	state, _, err := m.loadState(ctx, fileID, nil)
	if err != nil {
		return "", nil, err
	}
	if err := edit(state); err != nil {
		return "", nil, err
	}

	text := state.Text()
	encoded := state.Encode()
	if err := m.persist(ctx, fileID, text, encoded); err != nil {
		return "", nil, err
	}
	return text, encoded, nil
}

// loadState reconstructs a file's state from the last durable flush. A file
// with no durable state starts from the seed text, if any.
func (m *sessionManager) loadState(ctx context.Context, fileID string, seed *string) (*crdt.State, *string, error) {
	content, err := m.contentRepo.Get(ctx, fileID)
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, err
		}
		content = nil
	}

	if content != nil && len(content.ReplicatedState) > 0 {
		state, err := crdt.DecodeState(content.ReplicatedState)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		return state, content.CanonicalText, nil
	}

	// Never-flushed file. Canonical text without binary state can only come
	// from an external writer; reseed from it so the text survives.
	if content != nil && content.CanonicalText != nil {
		return crdt.Seed(*content.CanonicalText), content.CanonicalText, nil
	}
	if seed != nil {
		return crdt.Seed(*seed), nil, nil
	}
	return crdt.NewState(), nil, nil
}

// flushFile is the coalescer's flush target: snapshot, derive text, persist.
// A byte-equal text skips the write entirely.
func (m *sessionManager) flushFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	live := m.sessions[fileID]
	m.mu.Unlock()
	if live == nil {
		return nil
	}

	text := live.state.Text()

	live.mu.Lock()
	skip := live.lastFlushed != nil && *live.lastFlushed == text
	live.mu.Unlock()
	if skip {
		return nil
	}

	if err := m.persist(ctx, fileID, text, live.state.Encode()); err != nil {
		return err
	}

	live.mu.Lock()
	live.lastFlushed = &text
	live.mu.Unlock()

	m.logger.Debug("session flushed", "file_id", fileID, "bytes", len(text))
	return nil
}

func (m *sessionManager) persist(ctx context.Context, fileID, text string, state []byte) error {
	content := &models.FileContent{
		FileID:          fileID,
		CanonicalText:   &text,
		ReplicatedState: state,
		UpdatedAt:       time.Now(),
	}
	if err := m.contentRepo.Upsert(ctx, content); err != nil {
		return err
	}
	return m.nodeRepo.UpdateWordCount(ctx, fileID, countWords(text))
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
