package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk sizes are counted in runes so Hangul text gets the same budget as
// ASCII.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// DefaultSeparators are the preferred cut points, strongest first.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into overlapping windows.
type Chunker struct {
	size       int
	overlap    int
	separators []string
}

// NewChunker validates size and overlap. A nil separators slice uses
// DefaultSeparators.
func NewChunker(size, overlap int, separators []string) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("ingest: chunk size must be at least 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("ingest: chunk overlap must be within [0, %d), got %d", size, overlap)
	}
	if separators == nil {
		separators = DefaultSeparators
	}
	return &Chunker{size: size, overlap: overlap, separators: separators}, nil
}

// Split returns windows of at most size runes. Each window ends at the
// strongest separator found in its second half, or at the hard limit when
// none exists, and the next window starts overlap runes before that end.
// Blank text yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{string(runes)}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := min(start+c.size, len(runes))
		if end < len(runes) {
			end = c.cut(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cut moves end back to just after the strongest separator in the second
// half of runes[start:end].
func (c *Chunker) cut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := len(string(runes[start : start+(end-start)/2]))

	for _, sep := range c.separators {
		if i := strings.LastIndex(window, sep); i >= half {
			return start + utf8.RuneCountInString(window[:i+len(sep)])
		}
	}
	return end
}
