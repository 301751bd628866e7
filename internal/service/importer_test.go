package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain/services"
)

func TestImportCreatesTreeAndFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := []services.ImportFile{
		{Path: "README.md", Content: "root readme"},
		{Path: "docs/guide.md", Content: "the guide"},
		{Path: "docs/api/reference.md", Content: "api reference"},
	}

	result, err := env.importer.Import(ctx, files, "importer")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.TotalFiles)
	assert.Equal(t, 3, result.Summary.Created)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Empty(t, result.Errors)

	tree, err := env.tree.BuildTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Files, 1)
	assert.Equal(t, "README.md", tree.Files[0].Name)
	require.Len(t, tree.Folders, 1)
	assert.Equal(t, "docs", tree.Folders[0].Name)

	guide := tree.Folders[0].Files[0]
	text, err := env.share.CanonicalText(ctx, guide.ID)
	require.NoError(t, err)
	assert.Equal(t, "the guide", text)
}

func TestImportUpdatesExistingFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := []services.ImportFile{{Path: "docs/guide.md", Content: "v1"}}
	_, err := env.importer.Import(ctx, first, "importer")
	require.NoError(t, err)

	second := []services.ImportFile{{Path: "docs/guide.md", Content: "v2"}}
	result, err := env.importer.Import(ctx, second, "importer")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Created)
	assert.Equal(t, 1, result.Summary.Updated)

	tree, err := env.tree.BuildTree(ctx)
	require.NoError(t, err)
	guide := tree.Folders[0].Files[0]

	text, err := env.share.CanonicalText(ctx, guide.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", text)

	// Each import pass recorded a version.
	versions, err := env.ledger.List(ctx, guide.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestImportContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A file named "docs" blocks folder creation for the second entry.
	createFile(t, env, nil, "docs")

	files := []services.ImportFile{
		{Path: "ok.md", Content: "fine"},
		{Path: "docs/broken.md", Content: "cannot land"},
		{Path: "also-ok.md", Content: "fine too"},
	}

	result, err := env.importer.Import(ctx, files, "importer")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Created)
	assert.Equal(t, 1, result.Summary.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "docs/broken.md", result.Errors[0].Path)
	assert.True(t, strings.Contains(result.Errors[0].Error, "file"))
}

func TestImportOversizedNameFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := []services.ImportFile{
		{Path: strings.Repeat("x", 600) + ".md", Content: "too long"},
	}

	result, err := env.importer.Import(ctx, files, "importer")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Failed)
}
