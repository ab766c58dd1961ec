package retrieval

import (
	"errors"
	"math"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEmptyVocabulary is returned when no document contributes a single
// usable term, e.g. every token is a stop word.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or short tokens")

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// vectorizer turns a set of texts into L2-normalised tf-idf rows.
type vectorizer struct {
	maxFeatures int
	stopWords   map[string]struct{}
	fold        cases.Caser
}

func newVectorizer(maxFeatures int, stopWords map[string]struct{}) *vectorizer {
	return &vectorizer{
		maxFeatures: maxFeatures,
		stopWords:   stopWords,
		fold:        cases.Lower(language.Und),
	}
}

func (v *vectorizer) tokenize(text string) []string {
	raw := tokenRegex.FindAllString(v.fold.String(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// fitTransform builds the vocabulary over texts and returns one sparse,
// unit-length weight vector per text.
func (v *vectorizer) fitTransform(texts []string) ([]map[string]float64, error) {
	counts := make([]map[string]int, len(texts))
	total := make(map[string]int)
	df := make(map[string]int)

	for i, text := range texts {
		c := make(map[string]int)
		for _, tok := range v.tokenize(text) {
			c[tok]++
		}
		for term, n := range c {
			total[term] += n
			df[term]++
		}
		counts[i] = c
	}

	if len(total) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := v.limitFeatures(total)
	n := float64(len(texts))

	rows := make([]map[string]float64, len(texts))
	for i, c := range counts {
		row := make(map[string]float64, len(c))
		var norm float64
		for term, tf := range c {
			if _, ok := vocab[term]; !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			w := float64(tf) * idf
			row[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range row {
				row[term] /= norm
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// limitFeatures keeps the maxFeatures most frequent terms across the corpus,
// breaking count ties alphabetically.
func (v *vectorizer) limitFeatures(total map[string]int) map[string]struct{} {
	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}
	vocab := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		vocab[term] = struct{}{}
	}
	return vocab
}

// cosine returns the dot product of two unit vectors.
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, w := range a {
		dot += w * b[term]
	}
	return dot
}
