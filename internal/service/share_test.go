package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain"
	"inkwell/internal/domain/services"
)

func TestShareTreeFiltersHiddenFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:           "Docs/public.md",
		VisibleInShare: true,
	})
	require.NoError(t, err)
	_, err = env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name: "Docs/private.md",
	})
	require.NoError(t, err)
	_, err = env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name: "Internal/secret.md",
	})
	require.NoError(t, err)

	full, err := env.share.Tree(ctx, false)
	require.NoError(t, err)
	assert.Len(t, full.Folders, 2)

	shared, err := env.share.Tree(ctx, true)
	require.NoError(t, err)

	// Only Docs survives, holding only the public file; Internal is pruned
	// because the filter left it empty.
	require.Len(t, shared.Folders, 1)
	assert.Equal(t, "Docs", shared.Folders[0].Name)
	require.Len(t, shared.Folders[0].Files, 1)
	assert.Equal(t, "public.md", shared.Folders[0].Files[0].Name)
}

func TestShareCanonicalText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "guide.md",
		InitialText: strPtr("shared words"),
		Author:      "alice",
	})
	require.NoError(t, err)

	text, err := env.share.CanonicalText(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared words", text)
}

func TestShareCanonicalTextNeverFlushedFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node := createFile(t, env, nil, "empty.md")

	text, err := env.share.CanonicalText(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestShareCanonicalTextErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := createFolder(t, env, nil, "Docs")

	_, err := env.share.CanonicalText(ctx, folder.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.share.CanonicalText(ctx, "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
