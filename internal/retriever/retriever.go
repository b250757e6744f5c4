package retriever

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"issue-reviewer/internal/domain"
	"issue-reviewer/internal/index"
)

// NoResults is returned by Query when the corpus has nothing to offer. The
// agent layer treats it as a benign answer, not an error.
const NoResults = "No relevant code found."

// DefaultK is the number of chunks returned when the caller does not ask
// for a specific amount.
const DefaultK = 3

// Retriever bridges the chunk index to its callers: it bulk-populates the
// index from a directory tree and renders ranked search results as a single
// string for the agent runtime.
type Retriever struct {
	index    *index.ChunkIndex
	defaultK int
	logger   *zap.Logger
}

// New creates a retriever over the given index. defaultK <= 0 falls back to
// DefaultK.
func New(idx *index.ChunkIndex, defaultK int, logger *zap.Logger) *Retriever {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: idx, defaultK: defaultK, logger: logger}
}

// Index exposes the underlying chunk index.
func (r *Retriever) Index() *index.ChunkIndex { return r.index }

// Search passes through to the index, applying the default k when the
// caller leaves it unset.
func (r *Retriever) Search(query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = r.defaultK
	}
	return r.index.Search(query, k)
}

// Query runs a search and renders the results for the agent. Each result
// shows its source path, line range, relevance rounded to two decimals, and
// the chunk text. No matches degrade to the NoResults sentinel rather than
// an error.
func (r *Retriever) Query(query string, k int) (string, error) {
	results, err := r.Search(query, k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoResults, nil
	}
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = fmt.Sprintf("--- %s (lines %d-%d, relevance: %.2f) ---\n%s",
			res.Chunk.SourcePath, res.Chunk.StartLine, res.Chunk.EndLine, res.Score, res.Chunk.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}
