package search_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/search"
)

func newFakeElasticsearch(t *testing.T, hits []map[string]any) *elasticsearch.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		body := map[string]any{"hits": map[string]any{"hits": hits}}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	return client
}

func TestElasticEngine_Search_BlendsDenseAndLexical(t *testing.T) {
	hits := []map[string]any{
		{"_score": 0.9, "_source": map[string]any{"parent_url": "https://example.com/switch"}},
		{"_score": 0.5, "_source": map[string]any{"parent_url": "https://example.com/other"}},
		{"_score": 0.4, "_source": map[string]any{"parent_url": "https://example.com/billing"}},
	}

	client := newFakeElasticsearch(t, hits)

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

	engine := search.NewElasticEngine(client, "chunks", docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "switch accounts", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "https://example.com/switch", results[0].URL)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestElasticEngine_Search_TopKBound(t *testing.T) {
	hits := []map[string]any{
		{"_score": 0.9, "_source": map[string]any{"parent_url": "https://example.com/a"}},
		{"_score": 0.8, "_source": map[string]any{"parent_url": "https://example.com/b"}},
	}

	client := newFakeElasticsearch(t, hits)

	docs := &fakeDocStore{docs: map[string]core.Document{
		"https://example.com/a": {URL: "https://example.com/a", Body: "a"},
		"https://example.com/b": {URL: "https://example.com/b", Body: "b"},
	}}

	engine := search.NewElasticEngine(client, "chunks", docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/a", results[0].URL)
}

func TestElasticEngine_Search_DropsVanishedDocuments(t *testing.T) {
	hits := []map[string]any{
		{"_score": 0.9, "_source": map[string]any{"parent_url": "https://example.com/gone"}},
	}

	client := newFakeElasticsearch(t, hits)

	docs := &fakeDocStore{docs: map[string]core.Document{}}

	engine := search.NewElasticEngine(client, "chunks", docs, fakeEmbedder{})

	results, err := engine.Search(t.Context(), "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
