package embedding

import (
	"math"
	"regexp"
	"strings"

	"issue-reviewer/internal/domain"
)

// TermVector is a sparse term-frequency representation of a piece of text.
// A term absent from the map has count zero.
type TermVector map[string]int

// Dot is the dot product over terms shared by both vectors.
func (v TermVector) Dot(other TermVector) float64 {
	// Iterate the smaller map.
	if len(other) < len(v) {
		v, other = other, v
	}
	sum := 0.0
	for term, count := range v {
		if oc, ok := other[term]; ok {
			sum += float64(count) * float64(oc)
		}
	}
	return sum
}

// Magnitude is the Euclidean norm over all terms of the vector.
func (v TermVector) Magnitude() float64 {
	sum := 0.0
	for _, count := range v {
		sum += float64(count) * float64(count)
	}
	return math.Sqrt(sum)
}

// BagOfWords embeds text as identifier-like term counts. It is a deliberately
// simple offline baseline: no vocabulary preparation, no IDF weighting.
type BagOfWords struct {
	tokenPattern *regexp.Regexp
}

// NewBagOfWords creates the term-frequency embedder.
func NewBagOfWords() *BagOfWords {
	return &BagOfWords{
		tokenPattern: regexp.MustCompile(`\b[a-z_][a-z0-9_]*\b`),
	}
}

// Name returns the identifier of this embedder implementation.
func (b *BagOfWords) Name() string { return "bagofwords" }

// Embed lowercases the text and counts identifier-like tokens: an ASCII
// letter or underscore followed by letters, digits, or underscores. Keywords,
// identifiers, and prose words are all captured; numbers and operators are
// dropped. Text with no tokens yields an empty vector, never an error.
func (b *BagOfWords) Embed(text string) (domain.Vector, error) {
	tokens := b.tokenPattern.FindAllString(strings.ToLower(text), -1)
	vec := make(TermVector, len(tokens))
	for _, tok := range tokens {
		vec[tok]++
	}
	return vec, nil
}

// Similarity computes cosine similarity between two term vectors. Terms
// unique to one side contribute nothing to the dot product but still count
// toward that side's magnitude. If either text tokenized to nothing the
// similarity is 0.0.
func (b *BagOfWords) Similarity(a, c domain.Vector) float64 {
	av, ok := a.(TermVector)
	if !ok {
		return 0.0
	}
	cv, ok := c.(TermVector)
	if !ok {
		return 0.0
	}
	magA, magC := av.Magnitude(), cv.Magnitude()
	if magA == 0 || magC == 0 {
		return 0.0
	}
	sim := av.Dot(cv) / (magA * magC)
	if sim > 1.0 {
		sim = 1.0
	}
	return sim
}
