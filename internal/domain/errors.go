package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling at the
// handler layer without switch statements over concrete types.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound indicates a node, content row or version is missing.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a name collision or duplicate version sequence.
	ErrConflict = errors.New("already exists")
	// ErrCycle indicates a move that would make a folder its own descendant.
	ErrCycle = errors.New("cycle detected")
	// ErrValidation indicates malformed input (bad name, bad path, wrong kind).
	ErrValidation = errors.New("validation failed")
	// ErrTransient indicates the durable store was unavailable; the operation
	// is safe to retry.
	ErrTransient = errors.New("durable store unavailable")
	// ErrInternal indicates invariant corruption. It should never surface to a
	// well-behaved caller and is logged loudly wherever it is detected.
	ErrInternal = errors.New("internal invariant violation")
	// ErrUnauthorized indicates a missing or invalid principal.
	ErrUnauthorized = errors.New("unauthorized")
)

// Domain error types implementing the HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a name collision with details about the existing
// resource, so callers can return the conflicting node alongside the 409.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (file, folder, version)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// CycleError represents an illegal move that would create a cycle in the tree.
type CycleError struct {
	NodeID   string
	TargetID string
}

func (e *CycleError) Error() string {
	return "cannot move a folder into itself or one of its descendants"
}

func (e *CycleError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrCycle
func (e *CycleError) Is(target error) bool { return target == ErrCycle }
