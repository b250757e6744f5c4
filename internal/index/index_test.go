package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issue-reviewer/internal/chunker"
	"issue-reviewer/internal/embedding"
)

func newTestIndex(t *testing.T, window, overlap int) *ChunkIndex {
	t.Helper()
	c, err := chunker.NewLineChunker(window, overlap)
	require.NoError(t, err)
	return New(c, embedding.NewBagOfWords())
}

func TestChunkIndex_AddFileCountsChunks(t *testing.T) {
	idx := newTestIndex(t, 2, 0)

	n, err := idx.AddFile("auth.py", "def login():\n    pass\ndef logout():\n    pass")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"auth.py"}, idx.Files())
}

func TestChunkIndex_ReindexAppends(t *testing.T) {
	idx := newTestIndex(t, 10, 0)

	_, err := idx.AddFile("a.py", "token = 1")
	require.NoError(t, err)
	_, err = idx.AddFile("a.py", "token = 2")
	require.NoError(t, err)

	// Duplicates accumulate: both generations stay searchable.
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"a.py"}, idx.Files())

	res, err := idx.Search("token", 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestChunkIndex_SearchRanking(t *testing.T) {
	idx := newTestIndex(t, 10, 0)

	_, err := idx.AddFile("tokens.py", "token token token token token")
	require.NoError(t, err)
	_, err = idx.AddFile("garden.md", "roses and tulips need watering")
	require.NoError(t, err)

	res, err := idx.Search("token", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "tokens.py", res[0].Chunk.SourcePath)
	// The chunk's vector restricted to shared terms is collinear with the
	// query vector.
	assert.InDelta(t, 1.0, res[0].Score, 1e-12)
}

func TestChunkIndex_SearchEmptyCorpus(t *testing.T) {
	idx := newTestIndex(t, 10, 0)

	res, err := idx.Search("anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestChunkIndex_SearchZeroK(t *testing.T) {
	idx := newTestIndex(t, 10, 0)
	_, err := idx.AddFile("a.py", "token")
	require.NoError(t, err)

	res, err := idx.Search("token", 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestChunkIndex_SearchEmptyQuery(t *testing.T) {
	idx := newTestIndex(t, 10, 0)
	_, err := idx.AddFile("a.py", "alpha")
	require.NoError(t, err)
	_, err = idx.AddFile("b.py", "beta")
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "42 + 17"} {
		t.Run(fmt.Sprintf("query=%q", query), func(t *testing.T) {
			res, err := idx.Search(query, 10)
			require.NoError(t, err)
			require.Len(t, res, 2)
			// All tied at 0.0, insertion order preserved.
			assert.Equal(t, 0.0, res[0].Score)
			assert.Equal(t, 0.0, res[1].Score)
			assert.Equal(t, "a.py", res[0].Chunk.SourcePath)
			assert.Equal(t, "b.py", res[1].Chunk.SourcePath)
		})
	}
}

func TestChunkIndex_SearchTruncatesToK(t *testing.T) {
	idx := newTestIndex(t, 1, 0)
	_, err := idx.AddFile("f.txt", "token one\ntoken two\ntoken three\ntoken four\ntoken five")
	require.NoError(t, err)

	res, err := idx.Search("token", 3)
	require.NoError(t, err)
	assert.Len(t, res, 3)

	res, err = idx.Search("token", 100)
	require.NoError(t, err)
	assert.Len(t, res, 5)
}

func TestChunkIndex_SearchDeterministic(t *testing.T) {
	idx := newTestIndex(t, 2, 1)
	_, err := idx.AddFile("a.go", "package auth\nfunc Login() {}\nfunc Logout() {}\nvar token string")
	require.NoError(t, err)
	_, err = idx.AddFile("b.go", "package auth\nfunc Validate(token string) bool { return true }")
	require.NoError(t, err)

	first, err := idx.Search("validate token", 10)
	require.NoError(t, err)
	second, err := idx.Search("validate token", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunkIndex_TieBreakKeepsInsertionOrder(t *testing.T) {
	idx := newTestIndex(t, 10, 0)
	// Identical content produces identical scores for any query.
	for i := 0; i < 5; i++ {
		_, err := idx.AddFile(fmt.Sprintf("f%d.txt", i), "token handler")
		require.NoError(t, err)
	}

	res, err := idx.Search("token", 5)
	require.NoError(t, err)
	require.Len(t, res, 5)
	for i, r := range res {
		assert.Equal(t, fmt.Sprintf("f%d.txt", i), r.Chunk.SourcePath)
	}
}

func TestChunkIndex_ConcurrentSearch(t *testing.T) {
	idx := newTestIndex(t, 5, 1)
	for i := 0; i < 10; i++ {
		_, err := idx.AddFile(fmt.Sprintf("f%d.go", i), "func handler(token string) {\n\treturn\n}")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				_, err := idx.AddFile(fmt.Sprintf("extra%d.go", i), "token")
				assert.NoError(t, err)
				return
			}
			res, err := idx.Search("token handler", 3)
			assert.NoError(t, err)
			assert.LessOrEqual(t, len(res), 3)
		}(i)
	}
	wg.Wait()
}

func TestChunkIndex_Clear(t *testing.T) {
	idx := newTestIndex(t, 10, 0)
	_, err := idx.AddFile("a.py", "token")
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	idx.Clear()
	assert.Equal(t, 0, idx.Len())

	res, err := idx.Search("token", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}
