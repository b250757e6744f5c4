package summarizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"issue-reviewer/internal/domain"
)

// Frequency describes an indexed corpus by its most characteristic
// identifier terms, with language keywords and short noise filtered out.
type Frequency struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequency creates a frequency-based corpus summarizer.
func NewFrequency() *Frequency {
	return &Frequency{
		tokenPattern: regexp.MustCompile(`\b[a-z_][a-z0-9_]*\b`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize renders a one-line description of the corpus: chunk and file
// counts plus the maxTerms most frequent identifier terms in rank order.
func (s *Frequency) Summarize(chunks []domain.Chunk, maxTerms int) string {
	if maxTerms <= 0 {
		maxTerms = 5
	}
	files := make(map[string]struct{})
	freq := make(map[string]int)
	for _, ch := range chunks {
		files[ch.SourcePath] = struct{}{}
		for _, tok := range s.tokenPattern.FindAllString(strings.ToLower(ch.Text), -1) {
			if _, stop := s.stopwords[tok]; stop {
				continue
			}
			if len(tok) < 3 {
				continue
			}
			freq[tok]++
		}
	}
	if len(chunks) == 0 {
		return "empty corpus"
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	// Rank by count, then alphabetically so equal counts are stable.
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxTerms > len(terms) {
		maxTerms = len(terms)
	}

	head := fmt.Sprintf("%d chunks from %d files", len(chunks), len(files))
	if maxTerms == 0 {
		return head
	}
	return head + "; frequent terms: " + strings.Join(terms[:maxTerms], ", ")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// prose
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "it", "this", "that", "these", "those", "from", "not",
		// keywords common across the indexed languages
		"def", "return", "import", "func", "var", "const", "let", "class",
		"self", "none", "true", "false", "nil", "null", "new", "type",
		"function", "while", "range", "case", "switch", "break", "continue",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
