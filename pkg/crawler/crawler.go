// Package crawler implements the seed-or-sitemap BFS crawl protocol: bounded
// concurrent fetches, in-process link discovery and deduplication, scoped to
// a single domain.
package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/fetch"
	"github.com/ksysoev/omnidex-crawl/pkg/htmlnorm"
	"github.com/ksysoev/omnidex-crawl/pkg/prov/openapi"
)

// batchSize is the number of URLs fetched concurrently in one BFS round.
const batchSize = 10

// Config tunes crawl behavior beyond spec.md's literal parameters.
type Config struct {
	// IncludePattern, when set, is a doublestar glob matched against each
	// candidate URL's path before it is enqueued, scoping a domain-wide
	// crawl to a subtree (e.g. "docs/**"). Unset, every same-domain link
	// is eligible, matching spec.md's literal behavior.
	IncludePattern string
}

// Crawler turns seed URLs into normalized Page records via bounded
// concurrent HTTP fetches.
type Crawler struct {
	client  *fetch.Client
	openapi *openapi.Processor
	cfg     Config
	log     *slog.Logger
}

// New builds a Crawler using client for HTTP fetches.
func New(client *fetch.Client, cfg Config, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}

	return &Crawler{client: client, openapi: openapi.New(), cfg: cfg, log: log}
}

// FetchOne fetches and normalizes a single URL.
func (c *Crawler) FetchOne(ctx context.Context, rawURL string) (*core.Page, error) {
	canonical, err := htmlnorm.CanonicalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Get(ctx, canonical)
	if err != nil {
		return nil, err
	}

	return c.toPage(canonical, res)
}

func (c *Crawler) toPage(canonicalURL string, res *fetch.Result) (*core.Page, error) {
	contentType := core.DetectContentType(canonicalURL, res.Body)

	if contentType == core.ContentTypeOpenAPI && c.openapi.IsOpenAPI(res.Body) {
		page := core.Page{
			URL:        canonicalURL,
			Domain:     htmlnorm.Domain(canonicalURL),
			Title:      c.openapi.ExtractTitle(res.Body),
			Breadcrumb: htmlnorm.BreadcrumbFromURL(canonicalURL),
			Content:    c.openapi.ToPlainText(res.Body),
		}

		if page.Title == "" {
			page.Title = page.Breadcrumb
		}

		return &page, nil
	}

	page, err := htmlnorm.Normalize(canonicalURL, bytes.NewReader(res.Body))
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// FetchMany fetches urls concurrently; per-URL failures are logged and
// dropped, never fatal to the batch.
func (c *Crawler) FetchMany(ctx context.Context, urls []string) map[string]core.Page {
	results := make(map[string]core.Page)

	for _, chunk := range chunkStrings(urls, batchSize) {
		pages := c.fetchBatch(ctx, chunk)
		for u, p := range pages {
			results[u] = p
		}
	}

	return results
}

func (c *Crawler) fetchBatch(ctx context.Context, urls []string) map[string]core.Page {
	type fetched struct {
		url  string
		page core.Page
	}

	out := make(chan fetched, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)

	for _, u := range urls {
		u := u

		g.Go(func() error {
			page, err := c.FetchOne(gctx, u)
			if err != nil {
				c.log.WarnContext(gctx, "fetch failed", "url", u, "error", err)
				return nil //nolint:nilerr // per-URL failures are isolated, never fatal to the batch
			}

			out <- fetched{url: page.URL, page: *page}

			return nil
		})
	}

	_ = g.Wait()
	close(out)

	results := make(map[string]core.Page, len(urls))
	for f := range out {
		results[f.url] = f.page
	}

	return results
}

// CrawlDomain runs the seed-or-sitemap BFS protocol from spec.md §4.3.
func (c *Crawler) CrawlDomain(ctx context.Context, baseURL, sitemapURL string, maxPages int) (map[string]core.Page, error) {
	baseURL, err := htmlnorm.CanonicalizeURL(baseURL)
	if err != nil {
		return nil, err
	}

	domain := htmlnorm.Domain(baseURL)

	seeds := []string{baseURL}

	if sitemapURL != "" {
		if found := parseSitemap(ctx, c.client, sitemapURL, domain); len(found) > 0 {
			seeds = found
		}
	}

	seen := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))

	for _, s := range seeds {
		canon, err := htmlnorm.CanonicalizeURL(s)
		if err != nil {
			continue
		}

		if !seen[canon] {
			seen[canon] = true
			queue = append(queue, canon)
		}
	}

	indexed := make(map[string]core.Page)

	for len(queue) > 0 && len(indexed) < maxPages {
		n := batchSize
		if n > len(queue) {
			n = len(queue)
		}

		batch := queue[:n]
		queue = queue[n:]

		pages := c.fetchBatch(ctx, batch)

		for u, page := range pages {
			if len(indexed) >= maxPages {
				break
			}

			indexed[u] = page

			for _, link := range page.Links {
				if seen[link] {
					continue
				}

				if !c.matchesInclude(link) {
					continue
				}

				seen[link] = true
				queue = append(queue, link)
			}
		}
	}

	return indexed, nil
}

func (c *Crawler) matchesInclude(rawURL string) bool {
	if c.cfg.IncludePattern == "" {
		return true
	}

	path := htmlnorm.PathOf(rawURL)

	ok, err := doublestar.Match(c.cfg.IncludePattern, strings.TrimPrefix(path, "/"))
	if err != nil {
		return true
	}

	return ok
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string

	for size < len(items) {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}

	return append(chunks, items)
}
