// Package bm25 implements Okapi BM25 lexical scoring for the candidate-URL
// rescore phase of hybrid search (§4.7).
package bm25

import (
	"math"
	"strings"
)

// Default Okapi BM25 free parameters, matching rank_bm25.BM25Okapi's defaults.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75

	// epsilon scales the corpus average IDF for terms whose raw IDF is
	// negative (appear in more than half the corpus), matching
	// rank_bm25.BM25Okapi's BM25_OKAPI_EPSILON_FACTOR.
	epsilon = 0.25
)

// Config holds the BM25 free parameters.
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the standard Okapi BM25 parameters.
func DefaultConfig() Config {
	return Config{K1: DefaultK1, B: DefaultB}
}

// Document is one corpus entry: an opaque key plus its raw text.
type Document struct {
	Key  string
	Text string
}

// Result is a single scored document.
type Result struct {
	Key   string
	Score float64
}

// Index is an in-memory Okapi BM25 corpus built once and queried many times.
type Index struct {
	cfg       Config
	docs      []tokenizedDoc
	avgDocLen float64
	df        map[string]int
	idf       map[string]float64
	n         int
}

type tokenizedDoc struct {
	key    string
	terms  map[string]int
	length int
}

// tokenize lowercases and splits on whitespace, the literal tokenization the
// scoring step requires.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// New builds a BM25 index over docs using cfg.
func New(docs []Document, cfg Config) *Index {
	idx := &Index{
		cfg:  cfg,
		docs: make([]tokenizedDoc, 0, len(docs)),
		df:   make(map[string]int),
	}

	var totalLen int

	for _, d := range docs {
		terms := tokenize(d.Text)
		counts := make(map[string]int, len(terms))

		for _, t := range terms {
			counts[t]++
		}

		for t := range counts {
			idx.df[t]++
		}

		idx.docs = append(idx.docs, tokenizedDoc{key: d.Key, terms: counts, length: len(terms)})
		totalLen += len(terms)
	}

	idx.n = len(idx.docs)
	if idx.n > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.n)
	}

	idx.idf = computeIDF(idx.n, idx.df)

	return idx
}

// computeIDF mirrors rank_bm25.BM25Okapi._calc_idf: compute the raw
// Robertson-Sparck-Jones IDF for every corpus term, then replace any term
// whose raw IDF is negative (appears in more than half the documents) with
// epsilon times the corpus's average raw IDF, rather than flooring at zero.
func computeIDF(n int, df map[string]int) map[string]float64 {
	idf := make(map[string]float64, len(df))

	var sum float64

	negative := make([]string, 0)

	for term, freq := range df {
		v := math.Log(float64(n-freq)+0.5) - math.Log(float64(freq)+0.5)
		idf[term] = v
		sum += v

		if v < 0 {
			negative = append(negative, term)
		}
	}

	if len(idf) == 0 {
		return idf
	}

	avgIDF := sum / float64(len(idf))

	for _, term := range negative {
		idf[term] = epsilon * avgIDF
	}

	return idf
}

// Search scores every document in the corpus against query and returns one
// raw BM25 result per document, in corpus order (the results are not
// sorted). Zero-scored documents are included; callers filter/normalize as
// needed.
func (idx *Index) Search(query string) []Result {
	queryTerms := tokenize(query)
	results := make([]Result, len(idx.docs))

	for i, doc := range idx.docs {
		results[i] = Result{Key: doc.key, Score: idx.score(doc, queryTerms)}
	}

	return results
}

// NormalizeToUnitRange divides every score by the maximum score in results
// and drops entries that are not positive, the literal normalization the
// blend step requires. When the maximum is not positive it returns nil.
func NormalizeToUnitRange(results []Result) []Result {
	var maxScore float64

	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	if maxScore == 0 {
		return nil
	}

	normalized := make([]Result, 0, len(results))

	for _, r := range results {
		if r.Score <= 0 {
			continue
		}

		normalized = append(normalized, Result{Key: r.Key, Score: r.Score / maxScore})
	}

	return normalized
}

func (idx *Index) score(doc tokenizedDoc, queryTerms []string) float64 {
	if idx.n == 0 {
		return 0
	}

	var total float64

	seen := make(map[string]bool, len(queryTerms))

	for _, term := range queryTerms {
		if seen[term] {
			continue
		}

		seen[term] = true

		tf, ok := doc.terms[term]
		if !ok {
			continue
		}

		idf := idx.idf[term]

		numerator := float64(tf) * (idx.cfg.K1 + 1)
		denominator := float64(tf) + idx.cfg.K1*(1-idx.cfg.B+idx.cfg.B*float64(doc.length)/idx.avgDocLen)

		total += idf * numerator / denominator
	}

	return total
}
