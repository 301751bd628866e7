package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
	"inkwell/internal/repository/bolt"
)

// testEnv wires the full service stack over an embedded bolt store.
type testEnv struct {
	store    *bolt.Store
	nodes    repositories.NodeRepository
	contents *countingContentRepo
	versions repositories.VersionRepository

	clock *fakeClock
	sched *fakeScheduler

	tree     services.TreeService
	sessions services.SessionManager
	ledger   services.VersionService
	gateway  services.Gateway
	share    services.ShareService
	importer services.ImportService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := bolt.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := testLogger()
	clock := newFakeClock()
	sched := newFakeScheduler()

	nodes := bolt.NewNodeRepository(store)
	contents := &countingContentRepo{inner: bolt.NewContentRepository(store)}
	versions := bolt.NewVersionRepository(store)

	tree := NewTreeService(nodes, contents, versions, store, logger)
	sessions := NewSessionManager(nodes, contents, 1500*time.Millisecond, 10*time.Second, clock, sched, nil, logger)
	ledger := NewVersionService(versions, nodes, logger)
	gateway := NewGateway(tree, sessions, ledger, logger)

	return &testEnv{
		store:    store,
		nodes:    nodes,
		contents: contents,
		versions: versions,
		clock:    clock,
		sched:    sched,
		tree:     tree,
		sessions: sessions,
		ledger:   ledger,
		gateway:  gateway,
		share:    NewShareService(nodes, contents, logger),
		importer: NewImportService(tree, gateway, logger),
	}
}

// countingContentRepo counts writes so tests can assert skipped flushes.
type countingContentRepo struct {
	inner repositories.ContentRepository

	mu      sync.Mutex
	upserts int
}

func (r *countingContentRepo) Get(ctx context.Context, fileID string) (*models.FileContent, error) {
	return r.inner.Get(ctx, fileID)
}

func (r *countingContentRepo) Upsert(ctx context.Context, content *models.FileContent) error {
	r.mu.Lock()
	r.upserts++
	r.mu.Unlock()
	return r.inner.Upsert(ctx, content)
}

func (r *countingContentRepo) Delete(ctx context.Context, fileIDs []string) error {
	return r.inner.Delete(ctx, fileIDs)
}

func (r *countingContentRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeScheduler collects armed tasks; tests fire them explicitly.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

type fakeTask struct {
	delay   time.Duration
	fn      func()
	mu      sync.Mutex
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Task {
	task := &fakeTask{delay: d, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

func (t *fakeTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the task callback unless it was stopped.
func (t *fakeTask) Fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
}

// pending returns armed tasks that have neither fired nor been stopped.
func (s *fakeScheduler) pending() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []*fakeTask
	for _, task := range s.tasks {
		task.mu.Lock()
		ok := !task.stopped && !task.fired
		task.mu.Unlock()
		if ok {
			live = append(live, task)
		}
	}
	return live
}

// fireAll fires every live task once.
func (s *fakeScheduler) fireAll() {
	for _, task := range s.pending() {
		task.Fire()
	}
}
