package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain"
)

func TestVersionRecordSequencesFromOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := createFile(t, env, nil, "guide.md")

	v1, err := env.ledger.Record(ctx, file.ID, strPtr("draft one"), nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Sequence)
	assert.Equal(t, "alice", v1.CreatedBy)

	v2, err := env.ledger.Record(ctx, file.ID, strPtr("draft two"), nil, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Sequence)
}

func TestVersionRecordUnknownFile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.Record(context.Background(), "no-such-id", strPtr("x"), nil, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionRecordOnFolderFails(t *testing.T) {
	env := newTestEnv(t)

	folder := createFolder(t, env, nil, "Docs")
	_, err := env.ledger.Record(context.Background(), folder.ID, strPtr("x"), nil, "alice")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVersionListNewestFirstWithoutPayloads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := createFile(t, env, nil, "guide.md")

	for i := 1; i <= 3; i++ {
		_, err := env.ledger.Record(ctx, file.ID, strPtr(fmt.Sprintf("draft %d", i)), []byte("state"), "alice")
		require.NoError(t, err)
	}

	versions, err := env.ledger.List(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	assert.Equal(t, int64(3), versions[0].Sequence)
	assert.Equal(t, int64(2), versions[1].Sequence)
	assert.Equal(t, int64(1), versions[2].Sequence)

	for _, v := range versions {
		assert.Nil(t, v.CanonicalText)
		assert.Nil(t, v.ReplicatedState)
	}
}

func TestVersionGetReturnsFullPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := createFile(t, env, nil, "guide.md")

	recorded, err := env.ledger.Record(ctx, file.ID, strPtr("full text"), []byte("binary"), "alice")
	require.NoError(t, err)

	got, err := env.ledger.Get(ctx, file.ID, recorded.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CanonicalText)
	assert.Equal(t, "full text", *got.CanonicalText)
	assert.Equal(t, []byte("binary"), got.ReplicatedState)

	_, err = env.ledger.Get(ctx, file.ID, "no-such-version")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionConcurrentRecordsAreGapFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := createFile(t, env, nil, "guide.md")

	const writers = 8
	var wg sync.WaitGroup
	sequences := make([]int64, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("draft from writer %d", i)
			v, err := env.ledger.Record(ctx, file.ID, &text, nil, "alice")
			if err != nil {
				t.Error(err)
				return
			}
			sequences[i] = v.Sequence
		}(i)
	}
	wg.Wait()

	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		assert.Equal(t, int64(i+1), seq, "sequences must be gap-free and unique")
	}
}

func TestVersionSequencesIndependentAcrossFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := createFile(t, env, nil, "a.md")
	b := createFile(t, env, nil, "b.md")

	va, err := env.ledger.Record(ctx, a.ID, strPtr("a1"), nil, "alice")
	require.NoError(t, err)
	vb, err := env.ledger.Record(ctx, b.ID, strPtr("b1"), nil, "alice")
	require.NoError(t, err)

	assert.Equal(t, int64(1), va.Sequence)
	assert.Equal(t, int64(1), vb.Sequence)
}

func TestVersionManyFilesRecordConcurrently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// More files than lock stripes, so some files share a stripe.
	const files = 2 * lockStripes
	ids := make([]string, files)
	for i := range ids {
		ids[i] = createFile(t, env, nil, fmt.Sprintf("f%03d.md", i)).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, files)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.ledger.Record(ctx, id, strPtr("draft"), nil, "alice")
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		versions, err := env.ledger.List(ctx, id)
		require.NoError(t, err)
		require.Len(t, versions, 1)
		assert.Equal(t, int64(1), versions[0].Sequence)
	}
}
