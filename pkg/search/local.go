// Package search implements hybrid dense+BM25 retrieval (§4.7): a dense KNN
// pass over the chunk collection, a BM25 rescore over the candidate set, and
// a fixed 70/30 blend.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ksysoev/omnidex-crawl/pkg/bm25"
	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

const (
	denseWeight   = 0.7
	bm25Weight    = 0.3
	denseFanout   = 4
	maxDenseFetch = 40
	scoreDecimals = 4
)

// LocalEngine runs hybrid search entirely client-side against the embedded
// vector store and document store, the default when no external search
// cluster is configured.
type LocalEngine struct {
	vectors  core.VectorStore
	docs     core.DocStore
	embedder core.Embedder
}

// NewLocalEngine builds a LocalEngine over the given collections and embedder.
func NewLocalEngine(vectors core.VectorStore, docs core.DocStore, embedder core.Embedder) *LocalEngine {
	return &LocalEngine{vectors: vectors, docs: docs, embedder: embedder}
}

// Search implements the dense → lexical → blend → rank pipeline.
func (e *LocalEngine) Search(ctx context.Context, query string, topK int) ([]core.SearchResult, error) {
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	n := topK * denseFanout
	if n > maxDenseFetch {
		n = maxDenseFetch
	}

	hits, err := e.vectors.Query(ctx, queryVec, n)
	if err != nil {
		return nil, fmt.Errorf("query chunk collection: %w", err)
	}

	order, dense := maxSimilarityPerURL(hits)

	candidates := make([]bm25.Document, 0, len(order))

	for _, url := range order {
		doc, err := e.docs.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", url, err)
		}

		if doc == nil {
			continue
		}

		candidates = append(candidates, bm25.Document{Key: url, Text: doc.Body})
	}

	lexical := map[string]float64{}

	if len(candidates) > 0 {
		idx := bm25.New(candidates, bm25.DefaultConfig())

		raw := idx.Search(query)
		for _, r := range bm25.NormalizeToUnitRange(raw) {
			lexical[r.Key] = r.Score
		}
	}

	blended := make([]core.SearchResult, 0, len(order))

	for _, url := range order {
		denseScore, ok := dense[url]
		if !ok {
			continue
		}

		score := denseScore
		if bmScore, ok := lexical[url]; ok {
			score = denseWeight*denseScore + bm25Weight*bmScore
		}

		doc, err := e.docs.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", url, err)
		}

		if doc == nil {
			continue
		}

		blended = append(blended, core.SearchResult{
			URL:        doc.URL,
			Title:      doc.Title,
			Breadcrumb: doc.Breadcrumb,
			Content:    doc.Body,
			Score:      roundScore(score),
		})
	}

	sort.SliceStable(blended, func(i, j int) bool { return blended[i].Score > blended[j].Score })

	if len(blended) > topK {
		blended = blended[:topK]
	}

	return blended, nil
}

// maxSimilarityPerURL collapses chunk hits to one maximum similarity per
// parent_url, returning the URLs in first-seen (hit-insertion) order for the
// deterministic tie-break.
func maxSimilarityPerURL(hits []core.ChunkHit) (order []string, dense map[string]float64) {
	dense = make(map[string]float64, len(hits))

	for _, h := range hits {
		if existing, ok := dense[h.ParentURL]; !ok {
			order = append(order, h.ParentURL)
			dense[h.ParentURL] = h.Similarity
		} else if h.Similarity > existing {
			dense[h.ParentURL] = h.Similarity
		}
	}

	return order, dense
}

func roundScore(score float64) float64 {
	scale := math.Pow(10, scoreDecimals)
	return math.Round(score*scale) / scale
}
