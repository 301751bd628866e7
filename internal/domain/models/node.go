package models

import (
	"time"
)

// NodeKind discriminates files from folders. Operations that only make sense
// for one kind check it explicitly instead of dispatching on strings.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// Valid reports whether the kind is one of the two known variants.
func (k NodeKind) Valid() bool {
	return k == NodeKindFile || k == NodeKindFolder
}

// Node is a single entry in the hierarchical namespace: a file or a folder.
// Path is the materialized slash-joined ancestor-name string; it is derived
// from the parent chain and never independently settable.
type Node struct {
	ID             string    `json:"id" db:"id"`
	ParentID       *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Kind           NodeKind  `json:"kind" db:"kind"`
	Name           string    `json:"name" db:"name"`
	Path           string    `json:"path" db:"path"`
	VisibleInShare bool      `json:"visible_in_share" db:"visible_in_share"` // files only
	WordCount      int       `json:"word_count" db:"word_count"`             // files only, derived from canonical text
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsFolder reports whether the node may have children.
func (n *Node) IsFolder() bool { return n.Kind == NodeKindFolder }

// IsFile reports whether the node carries content.
func (n *Node) IsFile() bool { return n.Kind == NodeKindFile }
