// Package indexer turns stored documents into embedded chunks.
package indexer

import (
	"fmt"

	"github.com/hyperjump/docqa/internal/models"
)

// DefaultChunkSize is the window length in runes.
const DefaultChunkSize = 800

// Span is one chunk window over a text. Start and End are rune offsets,
// half-open.
type Span struct {
	Start int
	End   int
	Text  string
}

// Chunk splits text into consecutive windows of exactly size runes; the
// last window holds the remainder. Empty text yields no spans.
func Chunk(text string, size int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", size, models.ErrInvalidInput)
	}
	runes := []rune(text)
	spans := make([]Span, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		spans = append(spans, Span{Start: start, End: end, Text: string(runes[start:end])})
	}
	return spans, nil
}

// Chunker applies Chunk with a fixed size.
type Chunker struct {
	size int
}

// NewChunker creates a chunker; size <= 0 selects DefaultChunkSize.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{size: size}
}

// Chunk splits text with the chunker's size.
func (c *Chunker) Chunk(text string) ([]Span, error) {
	return Chunk(text, c.size)
}

// Size returns the window length in runes.
func (c *Chunker) Size() int {
	return c.size
}
