package services

import "context"

// ImportFile is one discovered file from an external tree (for example a
// repository mirror): a slash-joined path and its plain-text content.
type ImportFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ImportSummary aggregates per-file outcomes of an import run.
type ImportSummary struct {
	TotalFiles int `json:"total_files"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
}

// ImportError describes a single failed file. Imports continue past failures.
type ImportError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ImportResult is the outcome of an import run.
type ImportResult struct {
	Summary ImportSummary `json:"summary"`
	Errors  []ImportError `json:"errors"`
}

// ImportService ingests externally discovered files one at a time,
// auto-creating intermediate folders and tolerating partial failure.
type ImportService interface {
	Import(ctx context.Context, files []ImportFile, author string) (*ImportResult, error)
}
