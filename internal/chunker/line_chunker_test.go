package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineChunker_Validation(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		overlap    int
		wantErr    bool
	}{
		{"valid", 50, 5, false},
		{"overlap just below window", 10, 9, false},
		{"no overlap", 10, 0, false},
		{"single line window", 1, 0, false},
		{"overlap equals window", 10, 10, true},
		{"overlap exceeds window", 10, 15, true},
		{"negative overlap", 10, -1, true},
		{"zero window", 0, 0, true},
		{"negative window", -3, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewLineChunker(tt.windowSize, tt.overlap)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfiguration)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.windowSize, c.WindowSize())
			assert.Equal(t, tt.overlap, c.Overlap())
		})
	}
}

func TestLineChunker_WholeFileFitsOneChunk(t *testing.T) {
	c, err := NewLineChunker(50, 5)
	require.NoError(t, err)

	chunks := c.Chunk("small.go", "package main\n\nfunc main() {}\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, "package main\n\nfunc main() {}", chunks[0].Text)
	assert.Equal(t, "small.go", chunks[0].SourcePath)
}

func TestLineChunker_TrailingNewlineConvention(t *testing.T) {
	c, err := NewLineChunker(2, 0)
	require.NoError(t, err)

	// The single empty element after the final newline is dropped, so this
	// is exactly five lines (the blank separator counts) and three chunks.
	content := "def login():\n    pass\n\ndef logout():\n    pass\n"
	chunks := c.Chunk("auth.py", content)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, "def login():\n    pass", chunks[0].Text)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 4, chunks[1].EndLine)
	assert.Equal(t, "\ndef logout():", chunks[1].Text)
	assert.Equal(t, 5, chunks[2].StartLine)
	assert.Equal(t, 5, chunks[2].EndLine)
	assert.Equal(t, "    pass", chunks[2].Text)
}

func TestLineChunker_EmptyContent(t *testing.T) {
	c, err := NewLineChunker(10, 2)
	require.NoError(t, err)

	chunks := c.Chunk("empty.txt", "")
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 1, chunks[0].EndLine)
	assert.Equal(t, "", chunks[0].Text)
}

func TestLineChunker_Coverage(t *testing.T) {
	// Every line of the input must land in at least one chunk.
	lines := make([]string, 137)
	for i := range lines {
		lines[i] = strings.Repeat("x", i%7)
	}
	content := strings.Join(lines, "\n")

	for _, cfg := range []struct{ window, overlap int }{{50, 5}, {10, 9}, {3, 0}, {1, 0}} {
		c, err := NewLineChunker(cfg.window, cfg.overlap)
		require.NoError(t, err)
		chunks := c.Chunk("f", content)

		covered := make(map[int]bool)
		for _, ch := range chunks {
			assert.LessOrEqual(t, ch.StartLine, ch.EndLine)
			for l := ch.StartLine; l <= ch.EndLine; l++ {
				covered[l] = true
			}
		}
		for l := 1; l <= len(lines); l++ {
			assert.Truef(t, covered[l], "window=%d overlap=%d: line %d not covered", cfg.window, cfg.overlap, l)
		}
	}
}

func TestLineChunker_OverlapBetweenConsecutiveChunks(t *testing.T) {
	c, err := NewLineChunker(10, 3)
	require.NoError(t, err)

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = "line"
	}
	chunks := c.Chunk("f", strings.Join(lines, "\n"))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		assert.GreaterOrEqual(t, cur.StartLine, prev.StartLine)
		if prev.EndLine-prev.StartLine+1 == 10 {
			shared := prev.EndLine - cur.StartLine + 1
			assert.Equal(t, 3, shared, "chunks %d and %d", i-1, i)
		}
	}
}

func TestLineChunker_Deterministic(t *testing.T) {
	c, err := NewLineChunker(5, 2)
	require.NoError(t, err)

	content := strings.Repeat("alpha beta\ngamma\n", 20)
	first := c.Chunk("f", content)
	second := c.Chunk("f", content)
	assert.Equal(t, first, second)
}
