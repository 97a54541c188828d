// Package core holds the data model and service facade for the knowledge-base
// pipeline: crawled pages, indexed documents, chunk views, and search results.
package core

import "time"

// Page is the normalized record produced by the crawler for a single URL.
type Page struct {
	URL        string
	Domain     string
	Title      string
	Breadcrumb string
	Content    string
	Links      []string
}

// Document is the stored, persisted form of a Page: the link set is dropped
// and the remaining fields are serialized into an enriched text blob.
type Document struct {
	URL        string
	Domain     string
	Title      string
	Breadcrumb string
	Body       string
	UpdatedAt  time.Time
}

// DocumentMeta is the metadata projection of a Document returned by listing
// operations, without the body text.
type DocumentMeta struct {
	URL        string
	Title      string
	Breadcrumb string
	Domain     string
}

// ViewType names one of the three textual projections of a page that get a
// dedicated chunk embedding.
type ViewType string

const (
	ViewBreadcrumb  ViewType = "breadcrumb"
	ViewTitlePath   ViewType = "title_path"
	ViewFullContent ViewType = "full_content"
)

// Chunk is a single embedded view of a page, keyed deterministically so that
// re-indexing overwrites rather than duplicates.
type Chunk struct {
	ID         string
	ParentURL  string
	Title      string
	Breadcrumb string
	ViewType   ViewType
	Domain     string
	Embedding  []float32
	Text       string
}

// ChunkHit is a single nearest-neighbor result from a vector query.
type ChunkHit struct {
	Chunk
	Similarity float64
}

// SearchResult is a single ranked, page-level hit returned by hybrid search.
type SearchResult struct {
	URL        string
	Title      string
	Breadcrumb string
	Content    string
	Score      float64
}

// EnrichedBlob composes the document body exactly as the indexer expects it:
// "Navigation: {breadcrumb}\nTitle: {title}\n\n{content}".
func EnrichedBlob(breadcrumb, title, content string) string {
	return "Navigation: " + breadcrumb + "\nTitle: " + title + "\n\n" + content
}
