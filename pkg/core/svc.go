package core

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// Service wires the crawler, indexer, search engine and document store
// behind the five tool operations named by the transport layer. It owns no
// mutable state of its own; all state lives in the store implementations it
// is constructed with.
type Service struct {
	crawler Crawler
	indexer Indexer
	search  SearchEngine
	store   DocStore
}

// New builds a Service. All four collaborators are required.
func New(crawler Crawler, indexer Indexer, search SearchEngine, store DocStore) (*Service, error) {
	if crawler == nil {
		return nil, fmt.Errorf("core: crawler is required")
	}

	if indexer == nil {
		return nil, fmt.Errorf("core: indexer is required")
	}

	if search == nil {
		return nil, fmt.Errorf("core: search engine is required")
	}

	if store == nil {
		return nil, fmt.Errorf("core: document store is required")
	}

	return &Service{crawler: crawler, indexer: indexer, search: search, store: store}, nil
}

// IndexPagesResult is the result shape of mw_kb_index_pages.
type IndexPagesResult struct {
	Status       string   `json:"status"`
	IndexedCount int      `json:"indexed_count"`
	SkippedCount int      `json:"skipped_count"`
	IndexedURLs  []string `json:"indexed_urls"`
	SkippedURLs  []string `json:"skipped_urls"`
}

// IndexPages fetches each URL, normalizes it and indexes it. Per-URL fetch
// failures are dropped silently (the crawler already logs them); they do not
// appear in either the indexed or skipped list.
func (s *Service) IndexPages(ctx context.Context, urls []string, forceRefresh bool) (*IndexPagesResult, error) {
	pageMap := s.crawler.FetchMany(ctx, urls)

	pages := make([]Page, 0, len(pageMap))
	for _, p := range pageMap {
		pages = append(pages, p)
	}

	indexed, skipped, err := s.indexer.IndexPages(ctx, pages, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("index pages: %w", err)
	}

	return &IndexPagesResult{
		Status:       "success",
		IndexedCount: len(indexed),
		SkippedCount: len(skipped),
		IndexedURLs:  indexed,
		SkippedURLs:  skipped,
	}, nil
}

// IndexDomainResult is the result shape of mw_kb_index_domain.
type IndexDomainResult struct {
	Status         string   `json:"status"`
	Domain         string   `json:"domain"`
	TotalPagesFound int     `json:"total_pages_found"`
	IndexedCount   int      `json:"indexed_count"`
	SkippedCount   int      `json:"skipped_count"`
	IndexedURLs    []string `json:"indexed_urls"`
	SkippedURLs    []string `json:"skipped_urls"`
}

// IndexDomain crawls a domain seeded by an optional sitemap, then indexes
// every page it found.
func (s *Service) IndexDomain(ctx context.Context, baseURL, sitemapURL string, maxPages int, forceRefresh bool) (*IndexDomainResult, error) {
	if maxPages <= 0 {
		maxPages = 300
	}

	pageMap, err := s.crawler.CrawlDomain(ctx, baseURL, sitemapURL, maxPages)
	if err != nil {
		return nil, fmt.Errorf("crawl domain: %w", err)
	}

	pages := make([]Page, 0, len(pageMap))
	for _, p := range pageMap {
		pages = append(pages, p)
	}

	indexed, skipped, err := s.indexer.IndexPages(ctx, pages, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("index domain: %w", err)
	}

	domain := hostOf(baseURL)

	return &IndexDomainResult{
		Status:          "success",
		Domain:          domain,
		TotalPagesFound: len(pageMap),
		IndexedCount:    len(indexed),
		SkippedCount:    len(skipped),
		IndexedURLs:     indexed,
		SkippedURLs:     skipped,
	}, nil
}

// ListedPage is the per-page shape nested under mw_kb_list's domains map.
type ListedPage struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	NavigationPath string `json:"navigation_path"`
}

// ListResult is the result shape of mw_kb_list.
type ListResult struct {
	TotalPages int                     `json:"total_pages"`
	Domains    map[string][]ListedPage `json:"domains"`
}

// List returns indexed pages, optionally scoped to a single domain.
func (s *Service) List(ctx context.Context, domain string) (*ListResult, error) {
	metas, err := s.store.List(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	result := &ListResult{Domains: map[string][]ListedPage{}}

	for _, m := range metas {
		result.Domains[m.Domain] = append(result.Domains[m.Domain], ListedPage{
			URL:            m.URL,
			Title:          m.Title,
			NavigationPath: m.Breadcrumb,
		})
	}

	for d := range result.Domains {
		sort.Slice(result.Domains[d], func(i, j int) bool {
			return result.Domains[d][i].URL < result.Domains[d][j].URL
		})
	}

	result.TotalPages = len(metas)

	return result, nil
}

// RemoveResult is the result shape of mw_kb_remove.
type RemoveResult struct {
	Status  string   `json:"status"`
	Removed []string `json:"removed"`
}

// Remove deletes pages by explicit URL list and/or an entire domain.
func (s *Service) Remove(ctx context.Context, urls []string, domain string) (*RemoveResult, error) {
	removed := make([]string, 0, len(urls)+1)

	for _, u := range urls {
		if err := s.indexer.RemovePage(ctx, u); err != nil {
			return nil, fmt.Errorf("remove page %s: %w", u, err)
		}

		removed = append(removed, u)
	}

	if domain != "" {
		if err := s.indexer.RemoveDomain(ctx, domain); err != nil {
			return nil, fmt.Errorf("remove domain %s: %w", domain, err)
		}

		removed = append(removed, domain)
	}

	return &RemoveResult{Status: "success", Removed: removed}, nil
}

// SearchHit is the per-result shape nested under mw_kb_search's results list.
type SearchHit struct {
	Rank           int     `json:"rank"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	NavigationPath string  `json:"navigation_path"`
	RelevanceScore float64 `json:"relevance_score"`
	Content        string  `json:"content"`
}

// SearchToolResult is the result shape of mw_kb_search.
type SearchToolResult struct {
	Query        string      `json:"query"`
	TotalResults int         `json:"total_results"`
	Results      []SearchHit `json:"results"`
}

const defaultSearchTopK = 10

// Search answers a natural-language query via the hybrid search engine.
func (s *Service) Search(ctx context.Context, query string) (*SearchToolResult, error) {
	results, err := s.search.Search(ctx, query, defaultSearchTopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]SearchHit, 0, len(results))

	for i, r := range results {
		hits = append(hits, SearchHit{
			Rank:           i + 1,
			URL:            r.URL,
			Title:          r.Title,
			NavigationPath: r.Breadcrumb,
			RelevanceScore: r.Score,
			Content:        r.Content,
		})
	}

	return &SearchToolResult{Query: query, TotalResults: len(hits), Results: hits}, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
