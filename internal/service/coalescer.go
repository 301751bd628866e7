package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FlushFunc writes a file's current session state durably.
type FlushFunc func(ctx context.Context, fileID string) error

// ErrorFunc reports an asynchronous flush failure out of band.
type ErrorFunc func(fileID string, err error)

// Coalescer turns frequent small edits into infrequent durable writes. Each
// dirty file carries a debounce timer: a flush fires after a quiet period of
// no edits, or unconditionally once maxWait has elapsed since the file first
// became dirty, so an always-busy file still gets flushed periodically.
//
// A failed flush keeps the file dirty and re-arms the timer; failures reach
// the caller only through the error callback, never synchronously.
type Coalescer struct {
	quiet   time.Duration
	maxWait time.Duration
	clock   Clock
	sched   Scheduler
	flush   FlushFunc
	onError ErrorFunc
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*flushEntry
}

type flushEntry struct {
	timer      Task
	dirtySince time.Time
	inFlight   bool
	// dirtied records an edit that arrived while a flush was in flight, so
	// the entry is re-armed instead of cleared when the flush lands.
	dirtied bool
}

// NewCoalescer creates a coalescer. onError may be nil.
func NewCoalescer(
	quiet, maxWait time.Duration,
	clock Clock,
	sched Scheduler,
	flush FlushFunc,
	onError ErrorFunc,
	logger *slog.Logger,
) *Coalescer {
	return &Coalescer{
		quiet:   quiet,
		maxWait: maxWait,
		clock:   clock,
		sched:   sched,
		flush:   flush,
		onError: onError,
		logger:  logger,
		entries: make(map[string]*flushEntry),
	}
}

// MarkDirty records an edit and (re)arms the file's debounce timer.
func (c *Coalescer) MarkDirty(fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	e, ok := c.entries[fileID]
	if !ok {
		e = &flushEntry{dirtySince: now}
		c.entries[fileID] = e
	}

	if e.inFlight {
		e.dirtied = true
		return
	}

	if e.timer != nil {
		e.timer.Stop()
	}

	// Debounce by quiet, but never push the flush past dirtySince+maxWait.
	delay := c.quiet
	if deadline := e.dirtySince.Add(c.maxWait); now.Add(delay).After(deadline) {
		delay = deadline.Sub(now)
		if delay < 0 {
			delay = 0
		}
	}

	e.timer = c.sched.AfterFunc(delay, func() { c.fire(fileID) })
}

// FlushNow flushes the file synchronously, bypassing the debounce window.
// Used for final flushes on session close and before structural deletes.
func (c *Coalescer) FlushNow(ctx context.Context, fileID string) error {
	c.mu.Lock()
	e, ok := c.entries[fileID]
	if ok {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.inFlight = true
	}
	c.mu.Unlock()

	err := c.flush(ctx, fileID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[fileID]; ok {
		e.inFlight = false
		c.settle(fileID, e, err)
	}
	return err
}

// Cancel drops any pending flush for the file without running it. Used after
// the file's subtree has been deleted.
func (c *Coalescer) Cancel(fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[fileID]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.entries, fileID)
	}
}

// fire is the timer callback: runs the flush outside the lock and settles the
// entry with the result.
func (c *Coalescer) fire(fileID string) {
	c.mu.Lock()
	e, ok := c.entries[fileID]
	if !ok || e.inFlight {
		c.mu.Unlock()
		return
	}
	e.inFlight = true
	e.timer = nil
	c.mu.Unlock()

	err := c.flush(context.Background(), fileID)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.inFlight = false
	c.settle(fileID, e, err)

	if err != nil {
		c.logger.Warn("coalesced flush failed, will retry",
			"file_id", fileID,
			"error", err,
		)
		if c.onError != nil {
			go c.onError(fileID, err)
		}
	}
}

// settle clears a clean entry or re-arms a dirty or failed one. Caller holds
// the lock.
func (c *Coalescer) settle(fileID string, e *flushEntry, err error) {
	if err == nil && !e.dirtied {
		delete(c.entries, fileID)
		return
	}
	if err == nil {
		// Edits arrived mid-flight; start a fresh staleness window.
		e.dirtySince = c.clock.Now()
	}
	e.dirtied = false
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = c.sched.AfterFunc(c.quiet, func() { c.fire(fileID) })
}
