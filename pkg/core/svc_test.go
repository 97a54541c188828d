package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

type fakeCrawler struct {
	pages       map[string]core.Page
	domainErr   error
	domainPages map[string]core.Page
}

func (f *fakeCrawler) FetchOne(_ context.Context, url string) (*core.Page, error) {
	if p, ok := f.pages[url]; ok {
		return &p, nil
	}

	return nil, nil
}

// FetchMany keys its output by each page's own (possibly canonicalized) URL,
// mirroring the real crawler's FetchMany/toPage behavior where a requested
// URL's key in the returned map need not match the raw string the caller
// passed in.
func (f *fakeCrawler) FetchMany(_ context.Context, urls []string) map[string]core.Page {
	out := map[string]core.Page{}

	for _, u := range urls {
		if p, ok := f.pages[u]; ok {
			out[p.URL] = p
		}
	}

	return out
}

func (f *fakeCrawler) CrawlDomain(_ context.Context, _, _ string, _ int) (map[string]core.Page, error) {
	if f.domainErr != nil {
		return nil, f.domainErr
	}

	return f.domainPages, nil
}

type fakeIndexer struct {
	indexed, skipped []string
	removedPages     []string
	removedDomains   []string
}

func (f *fakeIndexer) IndexPage(context.Context, core.Page, bool) (string, bool, error) {
	return "", false, nil
}

func (f *fakeIndexer) IndexPages(_ context.Context, pages []core.Page, _ bool) ([]string, []string, error) {
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}

	return urls, f.skipped, nil
}

func (f *fakeIndexer) RemovePage(_ context.Context, url string) error {
	f.removedPages = append(f.removedPages, url)
	return nil
}

func (f *fakeIndexer) RemoveDomain(_ context.Context, domain string) error {
	f.removedDomains = append(f.removedDomains, domain)
	return nil
}

type fakeSearchEngine struct {
	results []core.SearchResult
}

func (f *fakeSearchEngine) Search(context.Context, string, int) ([]core.SearchResult, error) {
	return f.results, nil
}

type fakeStore struct {
	metas []core.DocumentMeta
}

func (f *fakeStore) Upsert(context.Context, core.Document) error  { return nil }
func (f *fakeStore) Exists(context.Context, string) (bool, error) { return false, nil }
func (f *fakeStore) Get(context.Context, string) (*core.Document, error) {
	return nil, nil
}

func (f *fakeStore) List(context.Context, string) ([]core.DocumentMeta, error) {
	return f.metas, nil
}

func (f *fakeStore) Delete(context.Context, string) error       { return nil }
func (f *fakeStore) DeleteDomain(context.Context, string) error { return nil }

func TestNew_RequiresAllCollaborators(t *testing.T) {
	crawler := &fakeCrawler{}
	indexer := &fakeIndexer{}
	engine := &fakeSearchEngine{}
	store := &fakeStore{}

	_, err := core.New(nil, indexer, engine, store)
	assert.Error(t, err)

	_, err = core.New(crawler, nil, engine, store)
	assert.Error(t, err)

	_, err = core.New(crawler, indexer, nil, store)
	assert.Error(t, err)

	_, err = core.New(crawler, indexer, engine, nil)
	assert.Error(t, err)

	svc, err := core.New(crawler, indexer, engine, store)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_IndexPages_DropsUnfetchableURLs(t *testing.T) {
	crawler := &fakeCrawler{pages: map[string]core.Page{
		"https://example.com/a": {URL: "https://example.com/a"},
	}}
	indexer := &fakeIndexer{}

	svc, err := core.New(crawler, indexer, &fakeSearchEngine{}, &fakeStore{})
	require.NoError(t, err)

	result, err := svc.IndexPages(t.Context(), []string{"https://example.com/a", "https://example.com/missing"}, false)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, []string{"https://example.com/a"}, result.IndexedURLs)
}

func TestService_IndexPages_SucceedsForNonCanonicalRequestURL(t *testing.T) {
	crawler := &fakeCrawler{pages: map[string]core.Page{
		"https://Example.com/a/": {URL: "https://example.com/a"},
	}}
	indexer := &fakeIndexer{}

	svc, err := core.New(crawler, indexer, &fakeSearchEngine{}, &fakeStore{})
	require.NoError(t, err)

	result, err := svc.IndexPages(t.Context(), []string{"https://Example.com/a/"}, false)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, []string{"https://example.com/a"}, result.IndexedURLs)
	assert.Empty(t, result.SkippedURLs)
}

func TestService_IndexDomain_DerivesDomainFromBaseURL(t *testing.T) {
	crawler := &fakeCrawler{domainPages: map[string]core.Page{
		"https://example.com/a": {URL: "https://example.com/a"},
		"https://example.com/b": {URL: "https://example.com/b"},
	}}
	indexer := &fakeIndexer{}

	svc, err := core.New(crawler, indexer, &fakeSearchEngine{}, &fakeStore{})
	require.NoError(t, err)

	result, err := svc.IndexDomain(t.Context(), "https://example.com/start", "", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "example.com", result.Domain)
	assert.Equal(t, 2, result.TotalPagesFound)
}

func TestService_List_GroupsByDomainSortedByURL(t *testing.T) {
	store := &fakeStore{metas: []core.DocumentMeta{
		{URL: "https://example.com/b", Domain: "example.com", Title: "B"},
		{URL: "https://example.com/a", Domain: "example.com", Title: "A"},
		{URL: "https://other.com/x", Domain: "other.com", Title: "X"},
	}}

	svc, err := core.New(&fakeCrawler{}, &fakeIndexer{}, &fakeSearchEngine{}, store)
	require.NoError(t, err)

	result, err := svc.List(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalPages)
	require.Len(t, result.Domains["example.com"], 2)
	assert.Equal(t, "https://example.com/a", result.Domains["example.com"][0].URL)
	assert.Equal(t, "https://example.com/b", result.Domains["example.com"][1].URL)
}

func TestService_Remove_DeletesURLsAndDomain(t *testing.T) {
	indexer := &fakeIndexer{}

	svc, err := core.New(&fakeCrawler{}, indexer, &fakeSearchEngine{}, &fakeStore{})
	require.NoError(t, err)

	result, err := svc.Remove(t.Context(), []string{"https://example.com/a"}, "other.com")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, []string{"https://example.com/a", "other.com"}, result.Removed)
	assert.Equal(t, []string{"https://example.com/a"}, indexer.removedPages)
	assert.Equal(t, []string{"other.com"}, indexer.removedDomains)
}

func TestService_Search_RanksResultsWithOneBasedRank(t *testing.T) {
	engine := &fakeSearchEngine{results: []core.SearchResult{
		{URL: "https://example.com/a", Title: "A", Score: 0.9},
		{URL: "https://example.com/b", Title: "B", Score: 0.7},
	}}

	svc, err := core.New(&fakeCrawler{}, &fakeIndexer{}, engine, &fakeStore{})
	require.NoError(t, err)

	result, err := svc.Search(t.Context(), "query")
	require.NoError(t, err)
	assert.Equal(t, "query", result.Query)
	assert.Equal(t, 2, result.TotalResults)
	assert.Equal(t, 1, result.Results[0].Rank)
	assert.Equal(t, 2, result.Results[1].Rank)
}
