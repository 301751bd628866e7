package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/crdt"
	"inkwell/internal/domain"
	"inkwell/internal/domain/services"
)

func TestGatewayCreateDocumentWithPathNotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "Docs/guides/getting-started.md",
		InitialText: strPtr("hello world"),
		Author:      "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "getting-started.md", node.Name)
	assert.Equal(t, "Docs/guides/getting-started.md", node.Path)

	// Intermediate folders were created.
	guides, err := env.tree.EnsureFolderPath(ctx, "Docs/guides")
	require.NoError(t, err)
	require.NotNil(t, guides)

	// Initial text was flushed and recorded as version 1.
	content, err := env.contents.Get(ctx, node.ID)
	require.NoError(t, err)
	require.NotNil(t, content.CanonicalText)
	assert.Equal(t, "hello world", *content.CanonicalText)

	versions, err := env.ledger.List(ctx, node.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, int64(1), versions[0].Sequence)
	assert.Equal(t, "alice", versions[0].CreatedBy)
}

func TestGatewayCreateDocumentReusesExistingFolders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := createFolder(t, env, nil, "Docs")

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name: "Docs/guide.md",
	})
	require.NoError(t, err)
	require.NotNil(t, node.ParentID)
	assert.Equal(t, docs.ID, *node.ParentID)
}

func TestGatewayCreateDocumentFolderNameTakenByFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	createFile(t, env, nil, "Docs")

	_, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name: "Docs/guide.md",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGatewayConcurrentEditingConverges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "Docs/guide.md",
		InitialText: strPtr("guide"),
		Author:      "alice",
	})
	require.NoError(t, err)

	s1, err := env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)
	s2, err := env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)

	// Two replicas start from the same durable snapshot and edit at opposite
	// ends concurrently.
	r1, err := crdt.DecodeState(s1.Snapshot())
	require.NoError(t, err)
	r2, err := crdt.DecodeState(s2.Snapshot())
	require.NoError(t, err)

	f1, err := r1.Insert("r1", 0, "start ")
	require.NoError(t, err)
	f2, err := r2.Insert("r2", r2.Len(), " end")
	require.NoError(t, err)

	// Fragments arrive in different orders at the two handles.
	require.NoError(t, s1.ApplyUpdate(f1))
	require.NoError(t, s1.ApplyUpdate(f2))
	require.NoError(t, s2.ApplyUpdate(f2))
	require.NoError(t, s2.ApplyUpdate(f1))

	assert.Equal(t, "start guide end", s1.Text())
	assert.Equal(t, s1.Snapshot(), s2.Snapshot())

	require.NoError(t, s1.Close(ctx))
	require.NoError(t, s2.Close(ctx))

	content, err := env.contents.Get(ctx, node.ID)
	require.NoError(t, err)
	require.NotNil(t, content.CanonicalText)
	assert.Equal(t, "start guide end", *content.CanonicalText)
}

func TestGatewayUpdateContentRecordsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "guide.md",
		InitialText: strPtr("v1 text"),
		Author:      "alice",
	})
	require.NoError(t, err)

	version, err := env.gateway.UpdateContent(ctx, &services.UpdateContentRequest{
		FileID:        node.ID,
		CanonicalText: strPtr("v2 text"),
		Author:        "ai-composer",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version.Sequence)
	assert.Equal(t, "ai-composer", version.CreatedBy)

	content, err := env.contents.Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2 text", *content.CanonicalText)
}

func TestGatewayUpdateContentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{Name: "guide.md"})
	require.NoError(t, err)

	// Neither form set.
	_, err = env.gateway.UpdateContent(ctx, &services.UpdateContentRequest{FileID: node.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Both forms set.
	_, err = env.gateway.UpdateContent(ctx, &services.UpdateContentRequest{
		FileID:        node.ID,
		CanonicalText: strPtr("x"),
		Fragment:      []byte("[]"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGatewayRenameRefreshesOpenSessionPaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "Docs/guide.md",
		InitialText: strPtr("guide"),
		Author:      "alice",
	})
	require.NoError(t, err)

	session, err := env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)
	defer session.Close(ctx)

	assert.Equal(t, "Docs/guide.md", session.Path())

	docs, err := env.tree.Get(ctx, *node.ParentID)
	require.NoError(t, err)

	_, err = env.gateway.Rename(ctx, docs.ID, "Documentation")
	require.NoError(t, err)

	// The open session keeps its file identity but sees the new path.
	assert.Equal(t, node.ID, session.FileID())
	assert.Equal(t, "Documentation/guide.md", session.Path())
	assert.Equal(t, "guide", session.Text())
}

func TestGatewayMoveRefreshesOpenSessionPaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	archive := createFolder(t, env, nil, "Archive")
	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name: "Docs/guide.md",
	})
	require.NoError(t, err)

	session, err := env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)
	defer session.Close(ctx)

	docs, err := env.tree.Get(ctx, *node.ParentID)
	require.NoError(t, err)

	_, err = env.gateway.Move(ctx, docs.ID, &archive.ID)
	require.NoError(t, err)

	assert.Equal(t, "Archive/Docs/guide.md", session.Path())
}

func TestGatewayDeleteForcesOpenSessionsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "Docs/guide.md",
		InitialText: strPtr("doomed"),
		Author:      "alice",
	})
	require.NoError(t, err)

	_, err = env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)
	require.True(t, env.sessions.HasSession(node.ID))

	docs, err := env.tree.Get(ctx, *node.ParentID)
	require.NoError(t, err)

	require.NoError(t, env.gateway.Delete(ctx, docs.ID))

	assert.False(t, env.sessions.HasSession(node.ID))
	_, err = env.tree.Get(ctx, node.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGatewayRestoreVersionAppendsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "guide.md",
		InitialText: strPtr("original text"),
		Author:      "alice",
	})
	require.NoError(t, err)

	_, err = env.gateway.UpdateContent(ctx, &services.UpdateContentRequest{
		FileID:        node.ID,
		CanonicalText: strPtr("overwritten text"),
		Author:        "bob",
	})
	require.NoError(t, err)

	versions, err := env.ledger.List(ctx, node.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	v1 := versions[1]

	restored, err := env.gateway.RestoreVersion(ctx, node.ID, v1.ID, "alice")
	require.NoError(t, err)

	// Restore appended version 3; nothing was rewritten.
	assert.Equal(t, int64(3), restored.Sequence)
	require.NotNil(t, restored.CanonicalText)
	assert.Equal(t, "original text", *restored.CanonicalText)

	versions, err = env.ledger.List(ctx, node.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 3)

	content, err := env.contents.Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "original text", *content.CanonicalText)
}

func TestGatewayRestoreVisibleToLiveSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := env.gateway.CreateDocument(ctx, &services.CreateDocumentRequest{
		Name:        "guide.md",
		InitialText: strPtr("original"),
		Author:      "alice",
	})
	require.NoError(t, err)

	_, err = env.gateway.UpdateContent(ctx, &services.UpdateContentRequest{
		FileID:        node.ID,
		CanonicalText: strPtr("changed"),
		Author:        "alice",
	})
	require.NoError(t, err)

	session, err := env.gateway.OpenForEditing(ctx, node.ID)
	require.NoError(t, err)
	defer session.Close(ctx)
	require.Equal(t, "changed", session.Text())

	versions, err := env.ledger.List(ctx, node.ID)
	require.NoError(t, err)
	v1 := versions[len(versions)-1]

	_, err = env.gateway.RestoreVersion(ctx, node.ID, v1.ID, "alice")
	require.NoError(t, err)

	// The restore flowed through the live session as a replace-all edit.
	assert.Equal(t, "original", session.Text())
}
