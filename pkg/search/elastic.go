package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ksysoev/omnidex-crawl/pkg/bm25"
	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// ElasticEngine runs hybrid search against an Elasticsearch cluster holding
// the chunk collection: a knn query supplies the dense candidate set, and
// the lexical score is rescored client-side exactly as LocalEngine does.
type ElasticEngine struct {
	client *elasticsearch.Client
	index  string
	docs   core.DocStore
	embed  core.Embedder
}

// NewElasticEngine builds an ElasticEngine against the chunk index.
func NewElasticEngine(client *elasticsearch.Client, index string, docs core.DocStore, embed core.Embedder) *ElasticEngine {
	return &ElasticEngine{client: client, index: index, docs: docs, embed: embed}
}

type esKNNQuery struct {
	Field         string    `json:"field"`
	QueryVector   []float32 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
}

type esSearchBody struct {
	Size int        `json:"size"`
	KNN  esKNNQuery `json:"knn"`
}

type esHit struct {
	Score  float64 `json:"_score"`
	Source struct {
		ParentURL string `json:"parent_url"`
	} `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

// Search issues a knn query against the cluster for the dense candidate set,
// then rescoring the same set with a client-side BM25 pass and blending the
// two exactly as LocalEngine does, so behavior is identical regardless of
// which store backs the search.
func (e *ElasticEngine) Search(ctx context.Context, query string, topK int) ([]core.SearchResult, error) {
	queryVec, err := e.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	n := topK * denseFanout
	if n > maxDenseFetch {
		n = maxDenseFetch
	}

	body := esSearchBody{
		Size: n,
		KNN:  esKNNQuery{Field: "vector", QueryVector: queryVec, K: n, NumCandidates: n * 2},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("execute search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search request failed: %s", res.Status())
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed esSearchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	order, dense := maxSimilarityPerURLFromES(parsed.Hits.Hits)

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

// maxSimilarityPerURLFromES collapses Elasticsearch knn hits to one maximum
// score per parent_url, mirroring maxSimilarityPerURL's chunk-hit collapse.
func maxSimilarityPerURLFromES(hits []esHit) (order []string, dense map[string]float64) {
	dense = make(map[string]float64, len(hits))

	for _, hit := range hits {
		url := hit.Source.ParentURL
		if url == "" {
			continue
		}

		if existing, ok := dense[url]; !ok {
			order = append(order, url)
			dense[url] = hit.Score
		} else if hit.Score > existing {
			dense[url] = hit.Score
		}
	}

	return order, dense
}
