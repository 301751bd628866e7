package config

import "time"

const (
	// MaxNodeNameLength is the maximum length for file and folder names.
	// Names may contain any character except the path separator; the
	// separator is sanitized out before a name can reach storage.
	MaxNodeNameLength = 512

	// MaxPathLength is the maximum length for full materialized paths.
	// Longer paths indicate overly deep hierarchies.
	MaxPathLength = 4096

	// DefaultFlushQuiet is the debounce window: a session is flushed after
	// this much edit inactivity.
	DefaultFlushQuiet = 1500 * time.Millisecond

	// DefaultFlushMaxWait bounds staleness: a continuously edited session is
	// still flushed at least this often.
	DefaultFlushMaxWait = 10 * time.Second
)
