package index

import (
	"fmt"
	"sort"
	"sync"

	"issue-reviewer/internal/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector domain.Vector
}

// ChunkIndex owns the in-memory corpus of embedded chunks and answers
// relevance queries over it with brute-force similarity scoring.
//
// AddFile takes the write lock, Search the read lock, so searches never
// observe a partially appended file. Indexing the same path again appends;
// old chunks stay searchable until Clear. The index lives for the session
// and is rebuilt on every process start.
type ChunkIndex struct {
	mu       sync.RWMutex
	chunker  domain.Chunker
	embedder domain.Embedder
	entries  []entry
}

// New creates an empty index over the given chunker and embedder.
func New(chunker domain.Chunker, embedder domain.Embedder) *ChunkIndex {
	return &ChunkIndex{chunker: chunker, embedder: embedder}
}

// AddFile splits content into chunks, embeds each one, and appends them to
// the corpus in chunk order. It returns the number of chunks added.
func (x *ChunkIndex) AddFile(path, content string) (int, error) {
	chunks := x.chunker.Chunk(path, content)
	added := make([]entry, 0, len(chunks))
	for _, ch := range chunks {
		vec, err := x.embedder.Embed(ch.Text)
		if err != nil {
			return 0, fmt.Errorf("embed %s lines %d-%d: %w", path, ch.StartLine, ch.EndLine, err)
		}
		added = append(added, entry{chunk: ch, vector: vec})
	}

	x.mu.Lock()
	x.entries = append(x.entries, added...)
	x.mu.Unlock()
	return len(added), nil
}

// Search returns the k most relevant chunks for the query, highest score
// first. Equal scores keep insertion order, so results are deterministic. A
// query with no extractable tokens scores every chunk 0.0 and returns the
// first k entries in insertion order. An empty corpus or k <= 0 returns nil.
func (x *ChunkIndex) Search(query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	queryVec, err := x.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.entries) == 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredChunk, len(x.entries))
	for i, e := range x.entries {
		scored[i] = domain.ScoredChunk{
			Chunk: e.chunk,
			Score: x.embedder.Similarity(queryVec, e.vector),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len reports the number of indexed chunks.
func (x *ChunkIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Files reports the distinct source paths in insertion order.
func (x *ChunkIndex) Files() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	seen := make(map[string]struct{}, len(x.entries))
	var paths []string
	for _, e := range x.entries {
		if _, ok := seen[e.chunk.SourcePath]; ok {
			continue
		}
		seen[e.chunk.SourcePath] = struct{}{}
		paths = append(paths, e.chunk.SourcePath)
	}
	return paths
}

// Chunks returns a snapshot copy of all indexed chunks in insertion order.
func (x *ChunkIndex) Chunks() []domain.Chunk {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.Chunk, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.chunk
	}
	return out
}

// Clear drops the whole corpus.
func (x *ChunkIndex) Clear() {
	x.mu.Lock()
	x.entries = nil
	x.mu.Unlock()
}
