// Package pipeline implements retrieval-synthesis: embed the question,
// retrieve the closest chunks, and generate a grounded answer with
// provenance.
package pipeline

import (
	"context"

	"github.com/rchow93/AgentRAG/internal/domain/answer"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
)

// Retriever is the vector index contract the pipeline consumes.
type Retriever interface {
	Query(ctx context.Context, name string, vector []float32, k int) ([]answer.Result, error)
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
}
