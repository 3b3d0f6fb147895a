package chunker

import (
	"errors"
	"strings"

	"scoperag/internal/domain"
)

// ErrInvalidChunkConfig is returned when the window parameters cannot
// produce a terminating chunk sequence.
var ErrInvalidChunkConfig = errors.New("invalid chunk config: require 0 < overlap < size")

// WindowChunker splits text into overlapping fixed-size character windows.
// Window positions are measured in runes so multi-byte text never splits
// mid-character.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a window chunker. An overlap at or above the
// window size would stall the window advance, so it is rejected up front.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 || overlap <= 0 || overlap >= size {
		return nil, ErrInvalidChunkConfig
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk splits content into windows of size runes, advancing size-overlap
// runes per step. Each window is whitespace-trimmed; windows that trim to
// empty are dropped. A pure function of its input: the same content always
// yields the same chunk sequence.
func (c *WindowChunker) Chunk(content string) []domain.Chunk {
	runes := []rune(content)

	if len(runes) <= c.size {
		text := strings.TrimSpace(content)
		if text == "" {
			return nil
		}
		return []domain.Chunk{{Text: text, Index: 0}}
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, domain.Chunk{Text: text, Index: len(chunks)})
		}

		if end >= len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured window size in runes.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the configured window overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }
