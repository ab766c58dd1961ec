// Package retrieval selects the lecture paragraphs most relevant to a
// question using tf-idf weighted cosine similarity.
package retrieval

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// DefaultMaxFeatures bounds the vocabulary size.
const DefaultMaxFeatures = 1000

// Retriever scores documents against a query. The zero value is not usable;
// use New.
type Retriever struct {
	maxFeatures int
	stopWords   map[string]struct{}
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithMaxFeatures sets the vocabulary bound. Values <= 0 disable the bound.
func WithMaxFeatures(n int) Option {
	return func(r *Retriever) { r.maxFeatures = n }
}

// WithStopWords replaces the English stop list.
func WithStopWords(words []string) Option {
	return func(r *Retriever) {
		r.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			r.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// New creates a Retriever with the English stop list and DefaultMaxFeatures.
func New(opts ...Option) *Retriever {
	r := &Retriever{
		maxFeatures: DefaultMaxFeatures,
		stopWords:   englishStopWords,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Scored is a document together with its similarity to the query.
type Scored struct {
	Index int
	Text  string
	Score float64
}

// Score returns the cosine similarity between query and each document,
// in document order.
func (r *Retriever) Score(query string, docs []string) ([]float64, error) {
	texts := make([]string, 0, len(docs)+1)
	texts = append(texts, query)
	texts = append(texts, docs...)

	rows, err := newVectorizer(r.maxFeatures, r.stopWords).fitTransform(texts)
	if err != nil {
		return nil, fmt.Errorf("build tf-idf model: %w", err)
	}

	scores := make([]float64, len(docs))
	for i := range docs {
		scores[i] = cosine(rows[0], rows[i+1])
	}
	return scores, nil
}

// Rank returns up to topK documents with positive similarity, most similar
// first. Equal scores keep the original document order.
func (r *Retriever) Rank(query string, docs []string, topK int) ([]Scored, error) {
	scores, err := r.Score(query, docs)
	if err != nil {
		return nil, err
	}

	ranked := make([]Scored, len(docs))
	for i, d := range docs {
		ranked[i] = Scored{Index: i, Text: d, Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	out := make([]Scored, 0, topK)
	for _, s := range ranked {
		if len(out) == topK {
			break
		}
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

// Retrieve returns the topK documents most relevant to query. It never
// fails: an empty query, no overlapping vocabulary, or a scoring error all
// fall back to the first topK documents.
func (r *Retriever) Retrieve(query string, docs []string, topK int) []string {
	if len(docs) == 0 {
		return []string{}
	}
	if topK <= 0 {
		topK = 1
	}
	if strings.TrimSpace(query) == "" {
		return firstK(docs, topK)
	}

	ranked, err := r.Rank(query, docs, topK)
	if err != nil {
		slog.Warn("tf-idf retrieval failed, returning first documents", "error", err, "top_k", topK)
		return firstK(docs, topK)
	}
	if len(ranked) == 0 {
		return firstK(docs, topK)
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Text
	}
	return out
}

// Retrieve runs a default Retriever.
func Retrieve(query string, docs []string, topK int) []string {
	return New().Retrieve(query, docs, topK)
}

func firstK(docs []string, k int) []string {
	if k > len(docs) {
		k = len(docs)
	}
	out := make([]string, k)
	copy(out, docs[:k])
	return out
}
