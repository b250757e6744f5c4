package chunker

import (
	"errors"
	"fmt"
	"strings"

	"issue-reviewer/internal/domain"
)

// ErrInvalidConfiguration is returned when window size or overlap would make
// the chunker stall or loop forever.
var ErrInvalidConfiguration = errors.New("invalid chunker configuration")

// LineChunker splits text into fixed-size windows of lines with overlap.
type LineChunker struct {
	windowSize int
	overlap    int
}

// NewLineChunker validates the window geometry up front. The window must hold
// at least one line and the overlap must be strictly smaller than the window,
// otherwise the slide step would be zero or negative.
func NewLineChunker(windowSize, overlap int) (*LineChunker, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: window size %d, must be >= 1", ErrInvalidConfiguration, windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap %d with window size %d, need 0 <= overlap < window", ErrInvalidConfiguration, overlap, windowSize)
	}
	return &LineChunker{windowSize: windowSize, overlap: overlap}, nil
}

// WindowSize returns the configured number of lines per chunk.
func (c *LineChunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured number of lines shared by consecutive chunks.
func (c *LineChunker) Overlap() int { return c.overlap }

// Chunk splits content into overlapping windows, preserving 1-based line
// provenance. Splitting is on "\n"; when the content ends with a newline the
// single trailing empty element is dropped, so "a\nb\n" is two lines, not
// three. Empty content is a single empty line and yields one chunk. The final
// chunk may be shorter than the window; it is always emitted.
func (c *LineChunker) Chunk(path, content string) []domain.Chunk {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	step := c.windowSize - c.overlap
	var chunks []domain.Chunk
	for i := 0; i < len(lines); i += step {
		end := i + c.windowSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, domain.Chunk{
			SourcePath: path,
			StartLine:  i + 1,
			EndLine:    end,
			Text:       strings.Join(lines[i:end], "\n"),
		})
	}
	return chunks
}
