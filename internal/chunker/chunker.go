// Package chunker provides fixed-size text chunking with overlap.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rchow93/AgentRAG/internal/domain/chunk"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 1000

// DefaultOverlap is the default number of overlapping characters between
// adjacent chunks.
const DefaultOverlap = 200

// Splitter cuts document text into fixed-size chunks. Sizes are measured
// in runes so multi-byte text never splits mid-character.
type Splitter struct {
	size    int
	overlap int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSize sets the chunk size in characters.
func WithSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter. An overlap at or above the chunk size is clamped
// to a quarter of the size so the window always advances.
func New(opts ...Option) *Splitter {
	s := &Splitter{size: DefaultSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}
	return s
}

// Size returns the configured chunk size.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split cuts text into chunks of at most Size characters, each adjacent
// pair sharing Overlap characters. Empty text yields no chunks; the final
// chunk may be shorter than Size. Every chunk carries the source path and
// its sequence position within the document.
func (s *Splitter) Split(text, source string) ([]chunk.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := s.size - s.overlap
	chunks := make([]chunk.Chunk, 0, len(runes)/step+1)

	position := 0
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}

		c, err := chunk.New(uuid.New().String(), string(runes[start:end]), source, position)
		if err != nil {
			return nil, fmt.Errorf("chunk %s position %d: %w", source, position, err)
		}
		chunks = append(chunks, c)
		position++

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
