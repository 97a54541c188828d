package core

import "context"

// DocStore is the persistent documents collection (§4.5): full pages keyed by
// canonical URL, with domain-scoped listing and removal.
type DocStore interface {
	Upsert(ctx context.Context, doc Document) error
	Exists(ctx context.Context, url string) (bool, error)
	Get(ctx context.Context, url string) (*Document, error)
	List(ctx context.Context, domain string) ([]DocumentMeta, error)
	Delete(ctx context.Context, url string) error
	DeleteDomain(ctx context.Context, domain string) error
}

// VectorStore is the persistent chunk-vector collection (§4.5): one row per
// view, embedded and keyed by a deterministic chunk id.
type VectorStore interface {
	Upsert(ctx context.Context, chunk Chunk) error
	Query(ctx context.Context, embedding []float32, n int) ([]ChunkHit, error)
	DeleteByParentURL(ctx context.Context, url string) error
	DeleteByDomain(ctx context.Context, domain string) error
}

// Embedder turns text into a fixed-dimension, L2-comparable dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// Crawler turns URLs into normalized Page records.
type Crawler interface {
	FetchOne(ctx context.Context, url string) (*Page, error)
	FetchMany(ctx context.Context, urls []string) map[string]Page
	CrawlDomain(ctx context.Context, baseURL, sitemapURL string, maxPages int) (map[string]Page, error)
}

// Indexer is the sole writer to the store, translating Page records into
// documents and chunks.
type Indexer interface {
	IndexPage(ctx context.Context, page Page, force bool) (url string, wrote bool, err error)
	IndexPages(ctx context.Context, pages []Page, force bool) (indexed, skipped []string, err error)
	RemovePage(ctx context.Context, url string) error
	RemoveDomain(ctx context.Context, domain string) error
}

// SearchEngine is the read-only hybrid-search surface.
type SearchEngine interface {
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)
}
