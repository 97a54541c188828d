// Package vectorstore implements the chunk-vector collection (§4.5): a
// Bleve index whose documents carry a cosine-similarity vector field plus
// stored keyword metadata, backing the dense phase of hybrid search.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// chunkDocument is the internal representation of a chunk stored in Bleve.
type chunkDocument struct {
	ID         string    `json:"id"`
	ParentURL  string    `json:"parent_url"`
	Title      string    `json:"title"`
	Breadcrumb string    `json:"breadcrumb"`
	ViewType   string    `json:"view_type"`
	Domain     string    `json:"domain"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
}

// Store implements core.VectorStore on top of an embedded Bleve index with
// vector-field (cosine KNN) support, the same go-faiss-backed capability the
// reference stack declares but never exercises.
type Store struct {
	index bleve.Index
	dims  int
}

// New opens an existing index at indexPath, or creates one sized for dims
// dimensions if it does not exist.
func New(indexPath string, dims int) (*Store, error) {
	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, buildIndexMapping(dims))
		if err != nil {
			return nil, fmt.Errorf("create vector index: %w", err)
		}
	}

	return &Store{index: index, dims: dims}, nil
}

// Close closes the underlying Bleve index.
func (s *Store) Close() error {
	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close vector index: %w", err)
	}

	return nil
}

// Upsert writes or overwrites a chunk, keyed by its deterministic id.
func (s *Store) Upsert(_ context.Context, chunk core.Chunk) error {
	doc := chunkDocument{
		ID:         chunk.ID,
		ParentURL:  chunk.ParentURL,
		Title:      chunk.Title,
		Breadcrumb: chunk.Breadcrumb,
		ViewType:   string(chunk.ViewType),
		Domain:     chunk.Domain,
		Text:       chunk.Text,
		Vector:     chunk.Embedding,
	}

	if err := s.index.Index(chunk.ID, doc); err != nil {
		return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
	}

	return nil
}

// Query issues a cosine KNN search over the vector field and returns the n
// nearest chunks with their similarity (1 - distance).
func (s *Store) Query(_ context.Context, embedding []float32, n int) ([]core.ChunkHit, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchNoneQuery())
	req.AddKNN("vector", embedding, int64(n), 1.0)
	req.Fields = []string{"parent_url", "title", "breadcrumb", "view_type", "domain", "text"}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	hits := make([]core.ChunkHit, 0, len(result.Hits))

	for _, hit := range result.Hits {
		c := core.Chunk{ID: hit.ID}

		if v, ok := hit.Fields["parent_url"].(string); ok {
			c.ParentURL = v
		}

		if v, ok := hit.Fields["title"].(string); ok {
			c.Title = v
		}

		if v, ok := hit.Fields["breadcrumb"].(string); ok {
			c.Breadcrumb = v
		}

		if v, ok := hit.Fields["view_type"].(string); ok {
			c.ViewType = core.ViewType(v)
		}

		if v, ok := hit.Fields["domain"].(string); ok {
			c.Domain = v
		}

		if v, ok := hit.Fields["text"].(string); ok {
			c.Text = v
		}

		hits = append(hits, core.ChunkHit{Chunk: c, Similarity: hit.Score})
	}

	return hits, nil
}

// Delete removes chunks by id.
func (s *Store) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.index.Delete(id); err != nil {
			return fmt.Errorf("delete chunk %s: %w", id, err)
		}
	}

	return nil
}

// DeleteByParentURL deletes every chunk whose parent_url matches url.
func (s *Store) DeleteByParentURL(ctx context.Context, url string) error {
	return s.deleteWhere(ctx, "parent_url", url)
}

// DeleteByDomain deletes every chunk whose domain matches domain.
func (s *Store) DeleteByDomain(ctx context.Context, domain string) error {
	return s.deleteWhere(ctx, "domain", domain)
}

func (s *Store) deleteWhere(_ context.Context, field, value string) error {
	q := bleve.NewTermQuery(value)
	q.SetField(field)

	req := bleve.NewSearchRequestOptions(q, maxDeleteBatch, 0, false)

	result, err := s.index.Search(req)
	if err != nil {
		return fmt.Errorf("query chunks by %s: %w", field, err)
	}

	for _, hit := range result.Hits {
		if err := s.index.Delete(hit.ID); err != nil {
			return fmt.Errorf("delete chunk %s: %w", hit.ID, err)
		}
	}

	return nil
}

// maxDeleteBatch bounds a single scoped-delete query; domains rarely exceed
// this many chunks (at most 3 per page, so ~3300 pages per sweep).
const maxDeleteBatch = 10000

func buildIndexMapping(dims int) mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.Store = true

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = true

	vectorFieldMapping := mapping.NewVectorFieldMapping()
	vectorFieldMapping.Dims = dims
	vectorFieldMapping.Similarity = "cosine"

	docMapping.AddFieldMappingsAt("parent_url", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("title", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("breadcrumb", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("view_type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("domain", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("vector", vectorFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
