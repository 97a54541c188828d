// Package indexer implements content-addressed, idempotent writes across the
// document and chunk collections (§4.6): existence checks, view generation,
// and scoped removal.
package indexer

import (
	"context"
	"crypto/md5" //nolint:gosec // content-addressing, not a security boundary
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// maxFullContentChars bounds the full_content view to the enriched blob's
// first 2000 characters.
const maxFullContentChars = 2000

// Indexer writes pages into the document and chunk collections, deriving the
// three per-page views and embedding each non-empty one.
type Indexer struct {
	docs     core.DocStore
	vectors  core.VectorStore
	embedder core.Embedder
}

// New builds an Indexer over the given collections and embedder.
func New(docs core.DocStore, vectors core.VectorStore, embedder core.Embedder) *Indexer {
	return &Indexer{docs: docs, vectors: vectors, embedder: embedder}
}

// IndexPage writes the document and its chunks for a single page. It returns
// ("", false, nil) when the page already exists and force is false.
func (idx *Indexer) IndexPage(ctx context.Context, page core.Page, force bool) (string, bool, error) {
	if !force {
		exists, err := idx.docs.Exists(ctx, page.URL)
		if err != nil {
			return "", false, fmt.Errorf("check document existence: %w", err)
		}

		if exists {
			return "", false, nil
		}
	}

	body := core.EnrichedBlob(page.Breadcrumb, page.Title, page.Content)

	doc := core.Document{
		URL:        page.URL,
		Domain:     page.Domain,
		Title:      page.Title,
		Breadcrumb: page.Breadcrumb,
		Body:       body,
		UpdatedAt:  time.Now(),
	}

	if err := idx.docs.Upsert(ctx, doc); err != nil {
		return "", false, fmt.Errorf("upsert document: %w", err)
	}

	for i, view := range views(page, body) {
		if view.text == "" {
			continue
		}

		embedding, err := idx.embedder.Embed(ctx, view.text)
		if err != nil {
			return "", false, fmt.Errorf("embed %s view: %w", view.viewType, err)
		}

		chunk := core.Chunk{
			ID:         chunkID(page.URL, i),
			ParentURL:  page.URL,
			Title:      page.Title,
			Breadcrumb: page.Breadcrumb,
			ViewType:   view.viewType,
			Domain:     page.Domain,
			Embedding:  embedding,
			Text:       view.text,
		}

		if err := idx.vectors.Upsert(ctx, chunk); err != nil {
			return "", false, fmt.Errorf("upsert %s chunk: %w", view.viewType, err)
		}
	}

	return page.URL, true, nil
}

// IndexPages indexes every page, returning the URLs written and the URLs
// skipped because they already existed (force=false only).
func (idx *Indexer) IndexPages(ctx context.Context, pages []core.Page, force bool) (indexed, skipped []string, err error) {
	for _, page := range pages {
		url, wrote, err := idx.IndexPage(ctx, page, force)
		if err != nil {
			return indexed, skipped, fmt.Errorf("index page %s: %w", page.URL, err)
		}

		if wrote {
			indexed = append(indexed, url)
		} else {
			skipped = append(skipped, page.URL)
		}
	}

	return indexed, skipped, nil
}

// RemovePage deletes the document for url, then every chunk with
// parent_url=url. Store errors are swallowed: removal is best-effort.
func (idx *Indexer) RemovePage(ctx context.Context, url string) error {
	_ = idx.docs.Delete(ctx, url)
	_ = idx.vectors.DeleteByParentURL(ctx, url)

	return nil
}

// RemoveDomain deletes every document and chunk belonging to domain.
// Store errors are swallowed: removal is best-effort.
func (idx *Indexer) RemoveDomain(ctx context.Context, domain string) error {
	_ = idx.docs.DeleteDomain(ctx, domain)
	_ = idx.vectors.DeleteByDomain(ctx, domain)

	return nil
}

type view struct {
	viewType core.ViewType
	text     string
}

// views derives the three textual projections of a page, in the fixed order
// that determines chunk id stability.
func views(page core.Page, body string) [3]view {
	titlePath := page.Title + " - " + page.Breadcrumb

	fullContent := body
	if len(fullContent) > maxFullContentChars {
		fullContent = fullContent[:maxFullContentChars]
	}

	return [3]view{
		{viewType: core.ViewBreadcrumb, text: page.Breadcrumb},
		{viewType: core.ViewTitlePath, text: titlePath},
		{viewType: core.ViewFullContent, text: fullContent},
	}
}

func chunkID(url string, viewIndex int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s::view::%d", url, viewIndex))) //nolint:gosec // content-addressing
	return hex.EncodeToString(sum[:])
}
