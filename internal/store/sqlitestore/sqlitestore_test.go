package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-recon/internal/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestPutScanGet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Put(ctx, "jornadas", []store.Document{
		{ID: "j2", Data: map[string]any{"imagens": map[string]any{"antes": "a.jpg"}}},
		{ID: "j1", Data: map[string]any{"imagens": map[string]any{"depois": []any{"b.jpg", "c.jpg"}}}},
		{ID: "j3", Data: nil},
	}))
	require.NoError(t, s.Put(ctx, "imagens", []store.Document{{ID: "i1", Data: map[string]any{}}}))

	page, err := s.Scan(ctx, "jornadas", "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "j1", page[0].ID)
	assert.Equal(t, []any{"b.jpg", "c.jpg"}, page[0].Data["imagens"].(map[string]any)["depois"])

	page, err = s.Scan(ctx, "jornadas", "j2", 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "j3", page[0].ID)
	assert.NotNil(t, page[0].Data)

	doc, err := s.Get(ctx, "jornadas", "j2")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"antes": "a.jpg"}, doc.Data["imagens"])

	_, err = s.Get(ctx, "jornadas", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Put(ctx, "jornadas", []store.Document{
		{ID: "a", Data: map[string]any{"nome": "x"}},
	}))

	n, err := s.Commit(ctx, "jornadas", []store.Update{
		{ID: "a", Set: map[string]any{"status_images": "linked"}},
		{ID: "ghost", Set: map[string]any{"status_images": "linked"}},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, n)

	doc, err := s.Get(ctx, "jornadas", "a")
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "status_images")

	n, err = s.Commit(ctx, "jornadas", []store.Update{
		{ID: "a", Set: map[string]any{"status_images": "linked"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err = s.Get(ctx, "jornadas", "a")
	require.NoError(t, err)
	assert.Equal(t, "linked", doc.Data["status_images"])
	assert.Equal(t, "x", doc.Data["nome"])
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recon.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "imagens", []store.Document{{ID: "i", Data: map[string]any{"sha256": "abc"}}}))
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close(ctx)
	doc, err := s.Get(ctx, "imagens", "i")
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.Data["sha256"])
	assert.Equal(t, path, s.Path())
}

func TestDecodeNull(t *testing.T) {
	data, err := decode("null")
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = decode("{")
	assert.Error(t, err)
}
