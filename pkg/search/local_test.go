package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/search"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Dim() int { return 4 }

func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

type fakeVectorStore struct {
	hits []core.ChunkHit
}

func (f *fakeVectorStore) Upsert(context.Context, core.Chunk) error { return nil }

func (f *fakeVectorStore) Query(_ context.Context, _ []float32, n int) ([]core.ChunkHit, error) {
	if n < len(f.hits) {
		return f.hits[:n], nil
	}

	return f.hits, nil
}

func (f *fakeVectorStore) DeleteByParentURL(context.Context, string) error { return nil }
func (f *fakeVectorStore) DeleteByDomain(context.Context, string) error   { return nil }

type fakeDocStore struct {
	docs map[string]core.Document
}

func (f *fakeDocStore) Upsert(context.Context, core.Document) error { return nil }
func (f *fakeDocStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeDocStore) Get(_ context.Context, url string) (*core.Document, error) {
	d, ok := f.docs[url]
	if !ok {
		return nil, nil
	}

	return &d, nil
}

func (f *fakeDocStore) List(context.Context, string) ([]core.DocumentMeta, error) { return nil, nil }
func (f *fakeDocStore) Delete(context.Context, string) error                      { return nil }
func (f *fakeDocStore) DeleteDomain(context.Context, string) error                { return nil }

func TestLocalEngine_Search_BlendsDenseAndLexical(t *testing.T) {
	vectors := &fakeVectorStore{
		hits: []core.ChunkHit{
			{Chunk: core.Chunk{ParentURL: "https://example.com/switch", Text: "switch"}, Similarity: 0.9},
			{Chunk: core.Chunk{ParentURL: "https://example.com/other"}, Similarity: 0.5},
			{Chunk: core.Chunk{ParentURL: "https://example.com/billing"}, Similarity: 0.4},
		},
	}

	// Three candidates, so a query term found in one of them has a positive
	// BM25 IDF and the lexical score takes part in the blend.
	docs := &fakeDocStore{docs: map[string]core.Document{
		"https://example.com/switch": {
			URL: "https://example.com/switch", Title: "Switch", Breadcrumb: "Docs > Switch",
			Body: "how to switch accounts in the admin console",
		},
		"https://example.com/other": {
			URL: "https://example.com/other", Title: "Other", Body: "unrelated content about pricing",
		},
		"https://example.com/billing": {
			URL: "https://example.com/billing", Title: "Billing", Body: "billing and invoices overview",
		},
	}}

	engine := search.NewLocalEngine(vectors, docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "switch accounts", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "https://example.com/switch", results[0].URL)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[0].Score, 0.9)
}

func TestLocalEngine_Search_TopKBound(t *testing.T) {
	vectors := &fakeVectorStore{
		hits: []core.ChunkHit{
			{Chunk: core.Chunk{ParentURL: "https://example.com/a"}, Similarity: 0.9},
			{Chunk: core.Chunk{ParentURL: "https://example.com/b"}, Similarity: 0.8},
		},
	}

	docs := &fakeDocStore{docs: map[string]core.Document{
		"https://example.com/a": {URL: "https://example.com/a", Body: "a"},
		"https://example.com/b": {URL: "https://example.com/b", Body: "b"},
	}}

	engine := search.NewLocalEngine(vectors, docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/a", results[0].URL)
}

func TestLocalEngine_Search_DropsVanishedDocuments(t *testing.T) {
	vectors := &fakeVectorStore{
		hits: []core.ChunkHit{{Chunk: core.Chunk{ParentURL: "https://example.com/gone"}, Similarity: 0.9}},
	}

	docs := &fakeDocStore{docs: map[string]core.Document{}}

	engine := search.NewLocalEngine(vectors, docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
