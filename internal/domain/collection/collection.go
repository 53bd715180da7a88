package collection

import (
	"fmt"
	"regexp"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is a named retrieval namespace (immutable value object).
// It pins the embedding model used at ingestion time so that query-time
// embeddings are guaranteed to live in the same vector space.
type Collection struct {
	name           string
	embeddingModel string
	vectorDim      int
	chunkCount     int
	createdAt      int64
	revision       int
}

// ValidateName checks that a collection name is usable: 1-64 chars of
// [a-zA-Z0-9_-]. Directory names feed this at ingestion time before any
// embedding work happens.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. EmbeddingModel: non-empty. VectorDim: > 0.
func New(name, embeddingModel string, vectorDim int) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	if embeddingModel == "" {
		return Collection{}, fmt.Errorf("embedding model is required")
	}
	if vectorDim <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}

	return Collection{
		name:           name,
		embeddingModel: embeddingModel,
		vectorDim:      vectorDim,
		createdAt:      time.Now().UnixMilli(),
		revision:       1,
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name, embeddingModel string, vectorDim, chunkCount int, createdAt int64, revision int) Collection {
	return Collection{
		name:           name,
		embeddingModel: embeddingModel,
		vectorDim:      vectorDim,
		chunkCount:     chunkCount,
		createdAt:      createdAt,
		revision:       revision,
	}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// EmbeddingModel returns the model identifier chunks were embedded with.
func (c Collection) EmbeddingModel() string { return c.embeddingModel }

// VectorDim returns the embedding dimensionality.
func (c Collection) VectorDim() int { return c.vectorDim }

// ChunkCount returns the number of stored chunks.
func (c Collection) ChunkCount() int { return c.chunkCount }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Revision returns the metadata revision, bumped on each upsert batch.
func (c Collection) Revision() int { return c.revision }

// WithChunkCount returns a copy with the chunk count replaced and the
// revision bumped.
func (c Collection) WithChunkCount(n int) Collection {
	out := c
	out.chunkCount = n
	out.revision++
	return out
}

// SameModel reports whether the collection was embedded with the given model.
func (c Collection) SameModel(model string) bool { return c.embeddingModel == model }
