package domain

// Chunk is a contiguous window of lines taken from one source file.
// Line numbers are 1-based and inclusive.
type Chunk struct {
	SourcePath string
	StartLine  int
	EndLine    int
	Text       string
}

// ScoredChunk is a chunk paired with its relevance score for a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Vector is an opaque embedding. Only the Embedder that produced a Vector
// knows how to score it; callers treat it as a value to hand back.
type Vector any

// Chunker splits file content into chunks suitable for indexing.
type Chunker interface {
	Chunk(path, content string) []Chunk
}

// Embedder converts free text into a vector representation and scores
// pairs of vectors it produced. Similarity returns a value in [0, 1].
type Embedder interface {
	Name() string
	Embed(text string) (Vector, error)
	Similarity(a, b Vector) float64
}

// Searcher answers relevance queries over an indexed corpus.
type Searcher interface {
	Search(query string, k int) ([]ScoredChunk, error)
}
