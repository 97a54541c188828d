package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/elastic/go-elasticsearch/v8"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
	"github.com/ksysoev/omnidex-crawl/pkg/crawler"
	"github.com/ksysoev/omnidex-crawl/pkg/embed"
	"github.com/ksysoev/omnidex-crawl/pkg/fetch"
	"github.com/ksysoev/omnidex-crawl/pkg/indexer"
	"github.com/ksysoev/omnidex-crawl/pkg/repo/docstore"
	"github.com/ksysoev/omnidex-crawl/pkg/repo/vectorstore"
	"github.com/ksysoev/omnidex-crawl/pkg/search"
	"github.com/ksysoev/omnidex-crawl/pkg/transport"
)

const vectorDims = 384

// RunCommand initializes the logger, loads configuration, wires the crawler,
// indexer, search engine and document store behind the core service, and
// runs the transport server. It returns an error if any step fails.
func RunCommand(ctx context.Context, flags *cmdFlags) error {
	if err := initLogger(flags); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
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

	searchEngine, err := newSearchEngine(cfg.Search, vectors, docStore, embedder)
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	svc, err := core.New(crawlerSvc, indexerSvc, searchEngine, docStore)
	if err != nil {
		return fmt.Errorf("failed to create core service: %w", err)
	}

	srv := transport.New(cfg.Transport, transport.Handlers(svc), slog.Default())

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("failed to run transport server: %w", err)
	}

	return nil
}

func newDocStore(ctx context.Context, cfg StorageConfig) (core.DocStore, error) {
	if cfg.Backend != "s3" {
		return docstore.New(cfg.Path)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return docstore.NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newEmbedder(cfg EmbedConfig) core.Embedder {
	local := embed.NewLocalProvider()

	if cfg.OpenAIAPIKey == "" {
		return local
	}

	openaiProvider, err := embed.NewOpenAIProvider(cfg.OpenAIAPIKey)
	if err != nil {
		slog.Warn("failed to create OpenAI embedder, falling back to local embedder", "error", err)
		return local
	}

	return embed.NewFallbackEmbedder(openaiProvider, slog.Default())
}

func newSearchEngine(cfg SearchConfig, vectors core.VectorStore, docs core.DocStore, embedder core.Embedder) (core.SearchEngine, error) {
	if cfg.ElasticURL == "" {
		return search.NewLocalEngine(vectors, docs, embedder), nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticURL}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return search.NewElasticEngine(client, cfg.ElasticIndex, docs, embedder), nil
}
