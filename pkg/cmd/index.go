package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/crawler"
	"github.com/ksysoev/omnidex-crawl/pkg/fetch"
	"github.com/ksysoev/omnidex-crawl/pkg/indexer"
	"github.com/ksysoev/omnidex-crawl/pkg/repo/vectorstore"
)

const defaultIndexMaxPages = 300

type indexFlags struct {
	BaseURL      string
	SitemapURL   string
	MaxPages     int
	ForceRefresh bool
}

// newIndexCmd creates a cobra command that crawls and indexes a single
// domain in one shot, useful for cron/CI — replacing the reference stack's
// git-ingest-oriented publish subcommand (see DESIGN.md).
func newIndexCmd(flags *cmdFlags) *cobra.Command {
	idxFlags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Crawl and index a single domain",
		Long:  "Crawl a documentation domain starting from base-url (optionally seeded by a sitemap) and index every page found.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), flags, idxFlags)
		},
	}

	cmd.Flags().StringVar(&idxFlags.BaseURL, "base-url", "", "base URL of the domain to crawl")
	cmd.Flags().StringVar(&idxFlags.SitemapURL, "sitemap-url", "", "optional sitemap URL to seed the crawl")
	cmd.Flags().IntVar(&idxFlags.MaxPages, "max-pages", defaultIndexMaxPages, "maximum number of pages to index")
	cmd.Flags().BoolVar(&idxFlags.ForceRefresh, "force-refresh", false, "overwrite existing documents and chunks")

	return cmd
}

// runIndex initializes the logger and configuration, wires a crawler and
// indexer against the configured store, and runs a single index_domain call.
func runIndex(ctx context.Context, flags *cmdFlags, idxFlags *indexFlags) error {
	if err := initLogger(flags); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	if idxFlags.BaseURL == "" {
		return fmt.Errorf("--base-url is required")
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	docStore, err := newDocStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}

	vectors, err := vectorstore.New(cfg.Search.IndexPath, vectorDims)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}

	embedder := newEmbedder(cfg.Embed)

	crawlerSvc := crawler.New(fetch.New(), crawler.Config{IncludePattern: cfg.Crawl.IncludePattern}, slog.Default())
	indexerSvc := indexer.New(docStore, vectors, embedder)

	pageMap, err := crawlerSvc.CrawlDomain(ctx, idxFlags.BaseURL, idxFlags.SitemapURL, idxFlags.MaxPages)
	if err != nil {
		return fmt.Errorf("crawl domain: %w", err)
	}

	pages := make([]core.Page, 0, len(pageMap))
	for _, p := range pageMap {
		pages = append(pages, p)
	}

	indexed, skipped, err := indexerSvc.IndexPages(ctx, pages, idxFlags.ForceRefresh)
	if err != nil {
		return fmt.Errorf("index pages: %w", err)
	}

	slog.Info("index complete",
		"base_url", idxFlags.BaseURL,
		"total_pages_found", len(pageMap),
		"indexed_count", len(indexed),
		"skipped_count", len(skipped),
	)

	return nil
}
