package models

import "time"

// Tree represents the root of the namespace listing.
type Tree struct {
	Folders []*FolderTreeNode `json:"folders"`
	Files   []FileTreeNode    `json:"files"`
}

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ParentID  *string           `json:"parent_id"`
	Path      string            `json:"path"`
	CreatedAt time.Time         `json:"created_at"`
	Folders   []*FolderTreeNode `json:"folders"` // Pointers for proper nesting
	Files     []FileTreeNode    `json:"files"`
}

// FileTreeNode represents a file in the tree (metadata only, no content)
type FileTreeNode struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ParentID       *string   `json:"parent_id"`
	Path           string    `json:"path"`
	WordCount      int       `json:"word_count"`
	VisibleInShare bool      `json:"visible_in_share"`
	UpdatedAt      time.Time `json:"updated_at"`
}
