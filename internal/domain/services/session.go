package services

import "context"

// Session is one replica's handle onto the live merged state of an open file.
// Any number of handles may exist per file; they all observe the same state.
type Session interface {
	FileID() string

	// Path returns the file's current presentation path. Structural moves
	// refresh it; the file identity itself is stable across moves.
	Path() string

	// ApplyUpdate merges an encoded fragment into the session state. Fragments
	// are never rejected for conflicting; divergent concurrent edits converge.
	ApplyUpdate(fragment []byte) error

	// Snapshot returns the current merged binary state. Safe to call
	// concurrently with ApplyUpdate.
	Snapshot() []byte

	// Text returns the plain-text projection of the current state.
	Text() string

	// Close detaches this replica. When the last replica detaches, a final
	// flush runs and the in-memory session is freed; durable state is
	// unaffected.
	Close(ctx context.Context) error
}

// OpenOptions tune session creation.
type OpenOptions struct {
	// InitialText seeds a never-edited file's state (template-based creation).
	// Ignored when durable state already exists.
	InitialText *string
}

// SessionManager holds at most one live session per open file and reconciles
// replicated edits with durable storage. Sessions are process-local caches,
// not the source of truth: a crash loses only edits younger than the debounce
// window.
type SessionManager interface {
	// Open attaches a replica to the file's session, creating it from the last
	// durably flushed state (or the seed text) if no session exists.
	Open(ctx context.Context, fileID string, opts *OpenOptions) (Session, error)

	// UpdateText performs a whole-document replace on behalf of a non-live
	// writer (import, AI generation, restore), routed through the replicated
	// state so a concurrent live session observes it as a normal edit. The
	// resulting state is flushed immediately. Returns the flushed text and
	// binary state.
	UpdateText(ctx context.Context, fileID, text string) (string, []byte, error)

	// ApplyFragment merges a fragment on behalf of a non-live writer and
	// flushes immediately. Returns the flushed text and binary state.
	ApplyFragment(ctx context.Context, fileID string, fragment []byte) (string, []byte, error)

	// ForceClose flushes and drops the file's session regardless of attached
	// replicas. Used before a structural delete of the file's subtree.
	ForceClose(ctx context.Context, fileID string) error

	// RefreshPath updates the cached presentation path of an open session
	// after a structural rename or move.
	RefreshPath(fileID, path string)

	// HasSession reports whether a live session exists for the file.
	HasSession(fileID string) bool
}
