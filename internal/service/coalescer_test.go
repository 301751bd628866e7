package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFlush counts flush calls and can be told to fail.
type recordingFlush struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (f *recordingFlush) flush(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fileID)
	return f.fail
}

func (f *recordingFlush) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *recordingFlush) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func newTestCoalescer(flush FlushFunc, onError ErrorFunc) (*Coalescer, *fakeClock, *fakeScheduler) {
	clock := newFakeClock()
	sched := newFakeScheduler()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewCoalescer(1500*time.Millisecond, 10*time.Second, clock, sched, flush, onError, logger)
	return c, clock, sched
}

func TestCoalescerFlushAfterQuiet(t *testing.T) {
	flush := &recordingFlush{}
	c, _, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")

	pending := sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1500*time.Millisecond, pending[0].delay)

	pending[0].Fire()
	assert.Equal(t, 1, flush.count())

	// Entry is gone after a clean flush; no timer remains armed.
	assert.Empty(t, sched.pending())
}

func TestCoalescerRearmsOnRepeatedEdits(t *testing.T) {
	flush := &recordingFlush{}
	c, clock, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")
	clock.Advance(500 * time.Millisecond)
	c.MarkDirty("f1")
	clock.Advance(500 * time.Millisecond)
	c.MarkDirty("f1")

	// Earlier timers were stopped; exactly one live timer remains.
	pending := sched.pending()
	require.Len(t, pending, 1)

	pending[0].Fire()
	assert.Equal(t, 1, flush.count())
}

func TestCoalescerBoundedStaleness(t *testing.T) {
	flush := &recordingFlush{}
	c, clock, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")

	// Keep editing for longer than maxWait; the armed delay shrinks until it
	// hits the dirtySince+maxWait deadline instead of quiet.
	clock.Advance(9 * time.Second)
	c.MarkDirty("f1")

	pending := sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Second, pending[0].delay)

	clock.Advance(2 * time.Second)
	c.MarkDirty("f1")

	pending = sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Duration(0), pending[0].delay)
}

func TestCoalescerRetriesAfterFailure(t *testing.T) {
	flush := &recordingFlush{}
	flush.setFail(errors.New("store down"))

	errCh := make(chan string, 1)
	c, _, sched := newTestCoalescer(flush.flush, func(fileID string, err error) {
		errCh <- fileID
	})

	c.MarkDirty("f1")
	sched.fireAll()
	assert.Equal(t, 1, flush.count())

	select {
	case id := <-errCh:
		assert.Equal(t, "f1", id)
	case <-time.After(time.Second):
		t.Fatal("flush failure was not reported")
	}

	// The file stayed dirty: a retry timer is armed, and firing it after the
	// store recovers flushes cleanly.
	pending := sched.pending()
	require.Len(t, pending, 1)

	flush.setFail(nil)
	pending[0].Fire()
	assert.Equal(t, 2, flush.count())
	assert.Empty(t, sched.pending())
}

func TestCoalescerFlushNow(t *testing.T) {
	flush := &recordingFlush{}
	c, _, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")
	require.NoError(t, c.FlushNow(context.Background(), "f1"))
	assert.Equal(t, 1, flush.count())

	// The debounce timer was cancelled; nothing fires later.
	sched.fireAll()
	assert.Equal(t, 1, flush.count())
}

func TestCoalescerFlushNowPropagatesError(t *testing.T) {
	flush := &recordingFlush{}
	flush.setFail(errors.New("store down"))
	c, _, _ := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")
	err := c.FlushNow(context.Background(), "f1")
	assert.Error(t, err)
}

func TestCoalescerCancel(t *testing.T) {
	flush := &recordingFlush{}
	c, _, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")
	c.Cancel("f1")

	sched.fireAll()
	assert.Equal(t, 0, flush.count())
}

func TestCoalescerIndependentFiles(t *testing.T) {
	flush := &recordingFlush{}
	c, _, sched := newTestCoalescer(flush.flush, nil)

	c.MarkDirty("f1")
	c.MarkDirty("f2")

	require.Len(t, sched.pending(), 2)
	sched.fireAll()
	assert.Equal(t, 2, flush.count())
}

func TestCoalescerEditDuringFlightRearms(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	flush := func(_ context.Context, fileID string) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return nil
	}
	c, _, sched := newTestCoalescer(flush, nil)

	c.MarkDirty("f1")
	pending := sched.pending()
	require.Len(t, pending, 1)

	done := make(chan struct{})
	go func() {
		pending[0].Fire()
		close(done)
	}()

	<-started
	// An edit lands while the flush is in flight; it must not be lost.
	c.MarkDirty("f1")
	close(release)
	<-done

	retry := sched.pending()
	require.Len(t, retry, 1)
	retry[0].Fire()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
