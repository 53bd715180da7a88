package chunk

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum chunk text size in bytes.
const MaxTextSize = 65536 // 64KB

// Chunk is an atomic slice of a document's text (immutable value object).
// It always carries enough metadata to trace back to the originating
// document: the source path and the sequence position within that document.
type Chunk struct {
	id       string
	text     string
	source   string
	position int
	vector   []float32
}

// New validates and creates a Chunk.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Text: non-empty, max 64KB.
func New(id, text, source string, position int) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if len(id) > 256 {
		return Chunk{}, fmt.Errorf("chunk ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Chunk{}, fmt.Errorf("chunk ID must be alphanumeric with underscores and hyphens")
	}
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text is required")
	}
	if len(text) > MaxTextSize {
		return Chunk{}, fmt.Errorf("chunk text too large (max %d bytes)", MaxTextSize)
	}
	if source == "" {
		return Chunk{}, fmt.Errorf("chunk source is required")
	}
	if position < 0 {
		return Chunk{}, fmt.Errorf("chunk position must be non-negative")
	}

	return Chunk{id: id, text: text, source: source, position: position}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(id, text, source string, position int, vector []float32) Chunk {
	return Chunk{id: id, text: text, source: source, position: position, vector: vector}
}

// ID returns the chunk identifier, unique within its collection.
func (c *Chunk) ID() string { return c.id }

// Text returns the chunk text content.
func (c *Chunk) Text() string { return c.text }

// Source returns the originating document path.
func (c *Chunk) Source() string { return c.source }

// Position returns the sequence position within the source document.
func (c *Chunk) Position() int { return c.position }

// Vector returns the embedding vector.
func (c *Chunk) Vector() []float32 { return c.vector }

// WithVector returns a copy with the given vector set.
func (c *Chunk) WithVector(v []float32) Chunk {
	return Chunk{id: c.id, text: c.text, source: c.source, position: c.position, vector: v}
}
