package vectorstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/repo/vectorstore"
)

const dims = 8

func newStore(t *testing.T) *vectorstore.Store {
	t.Helper()

	s, err := vectorstore.New(filepath.Join(t.TempDir(), "vectors.bleve"), dims)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func unitVector(hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1

	return v
}

func TestStore_UpsertAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID:         "chunk-a",
		ParentURL:  "https://example.com/a",
		Title:      "Alpha",
		Breadcrumb: "Docs > Alpha",
		ViewType:   core.ViewFullContent,
		Domain:     "example.com",
		Text:       "alpha content",
		Embedding:  unitVector(0),
	}))

	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID:         "chunk-b",
		ParentURL:  "https://example.com/b",
		Title:      "Beta",
		Breadcrumb: "Docs > Beta",
		ViewType:   core.ViewFullContent,
		Domain:     "example.com",
		Text:       "beta content",
		Embedding:  unitVector(1),
	}))

	hits, err := s.Query(ctx, unitVector(0), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "chunk-a", hits[0].ID)
	assert.Equal(t, "https://example.com/a", hits[0].ParentURL)
	assert.Equal(t, "alpha content", hits[0].Text)
}

func TestStore_DeleteByParentURL(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID: "c1", ParentURL: "https://example.com/a", Domain: "example.com", Embedding: unitVector(0),
	}))
	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID: "c2", ParentURL: "https://example.com/a", Domain: "example.com", Embedding: unitVector(1),
	}))
	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID: "c3", ParentURL: "https://example.com/b", Domain: "example.com", Embedding: unitVector(2),
	}))

	require.NoError(t, s.DeleteByParentURL(ctx, "https://example.com/a"))

	hits, err := s.Query(ctx, unitVector(2), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ID)
}

func TestStore_DeleteByDomain(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID: "c1", ParentURL: "https://a.com/1", Domain: "a.com", Embedding: unitVector(0),
	}))
	require.NoError(t, s.Upsert(ctx, core.Chunk{
		ID: "c2", ParentURL: "https://b.com/1", Domain: "b.com", Embedding: unitVector(1),
	}))

	require.NoError(t, s.DeleteByDomain(ctx, "a.com"))

	hits, err := s.Query(ctx, unitVector(1), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	require.NoError(t, s.Upsert(ctx, core.Chunk{ID: "c1", Domain: "a.com", Embedding: unitVector(0)}))

	require.NoError(t, s.Delete(ctx, []string{"c1"}))

	hits, err := s.Query(ctx, unitVector(0), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
