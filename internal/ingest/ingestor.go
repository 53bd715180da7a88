package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/rchow93/AgentRAG/internal/chunker"
	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/domain/chunk"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
	"github.com/rchow93/AgentRAG/internal/metrics"
)

// upserter is the consumer interface for the vector index (ISP).
type upserter interface {
	Upsert(ctx context.Context, name, model string, chunks []chunk.Chunk) (domcol.Collection, error)
}

// SkippedDocument records a document the ingestor could not process and
// the reason it was skipped.
type SkippedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CollectionReport summarizes ingestion of one collection.
type CollectionReport struct {
	Name      string            `json:"name"`
	Documents int               `json:"documents"`
	Chunks    int               `json:"chunks"`
	Skipped   []SkippedDocument `json:"skipped,omitempty"`
}

// Report summarizes a full ingestion run.
type Report struct {
	Collections []CollectionReport `json:"collections"`
	Skipped     []SkippedDocument  `json:"skipped,omitempty"`
}

// Ingestor walks a documents root, treating each subdirectory as a
// collection. Document failures never abort the run: the document is
// skipped, logged, and recorded in the report.
type Ingestor struct {
	registry *Registry
	embedder domain.Embedder
	index    upserter
	log      *zap.Logger
	accept   func(name string) bool
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithCollectionFilter restricts ingestion to directories the predicate
// accepts. Directories it rejects are passed over without a report entry.
func WithCollectionFilter(accept func(name string) bool) Option {
	return func(ing *Ingestor) { ing.accept = accept }
}

// New creates an Ingestor.
func New(registry *Registry, embedder domain.Embedder, index upserter, log *zap.Logger, opts ...Option) *Ingestor {
	ing := &Ingestor{registry: registry, embedder: embedder, index: index, log: log}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Run ingests everything under root. Subdirectories become collections
// named after the directory; files directly under root are skipped. A
// subdirectory that yields no chunks produces no collection.
func (ing *Ingestor) Run(ctx context.Context, root string) (*Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read documents root %s: %w", root, err)
	}

	report := &Report{}
	for _, entry := range entries {
		if !entry.IsDir() {
			ing.skip(report, nil, entry.Name(), "not inside a collection directory")
			continue
		}
		name := entry.Name()
		if err := domcol.ValidateName(name); err != nil {
			ing.skip(report, nil, name, fmt.Sprintf("invalid collection name: %v", err))
			continue
		}
		if ing.accept != nil && !ing.accept(name) {
			ing.log.Debug("collection filtered out", zap.String("collection", name))
			continue
		}

		colReport, err := ing.ingestCollection(ctx, filepath.Join(root, name), name)
		if err != nil {
			return nil, err
		}
		if colReport != nil {
			report.Collections = append(report.Collections, *colReport)
		}
	}

	return report, nil
}

// ingestCollection processes one collection directory: extract, chunk,
// embed, and upsert in a single batch. Returns nil (no error) when the
// directory yields no chunks at all.
func (ing *Ingestor) ingestCollection(ctx context.Context, dir, name string) (*CollectionReport, error) {
	colReport := &CollectionReport{Name: name}
	var chunks []chunk.Chunk

	files, err := collectFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docChunks, err := ing.loadDocument(ctx, path)
		if err != nil {
			ing.skip(nil, colReport, path, err.Error())
			continue
		}

		chunks = append(chunks, docChunks...)
		colReport.Documents++
	}

	if len(chunks) == 0 {
		ing.log.Info("collection yielded no chunks, skipping",
			zap.String("collection", name))
		if len(colReport.Skipped) == 0 {
			return nil, nil
		}
		return colReport, nil
	}

	embedded, err := ing.embedChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed collection %s: %w", name, err)
	}

	col, err := ing.index.Upsert(ctx, name, ing.embedder.Model(), embedded)
	if err != nil {
		return nil, fmt.Errorf("upsert collection %s: %w", name, err)
	}

	colReport.Chunks = len(embedded)
	metrics.IngestedChunksTotal.WithLabelValues(name).Add(float64(len(embedded)))
	ing.log.Info("collection ingested",
		zap.String("collection", name),
		zap.Int("documents", colReport.Documents),
		zap.Int("chunks", colReport.Chunks),
		zap.Int("total_chunks", col.ChunkCount()))

	return colReport, nil
}

func (ing *Ingestor) loadDocument(ctx context.Context, path string) ([]chunk.Chunk, error) {
	loader, profile, err := ing.registry.Lookup(path)
	if err != nil {
		return nil, err
	}

	text, err := loader.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	splitter := chunker.New(chunker.WithSize(profile.Size), chunker.WithOverlap(profile.Overlap))
	docChunks, err := splitter.Split(text, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if len(docChunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return docChunks, nil
}

// embedChunks vectorizes the whole batch, preferring the provider's batch
// endpoint when available.
func (ing *Ingestor) embedChunks(ctx context.Context, chunks []chunk.Chunk) ([]chunk.Chunk, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text()
	}

	var res domain.BatchEmbeddingResult
	var err error
	if batcher, ok := ing.embedder.(domain.BatchEmbedder); ok {
		res, err = batcher.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, ing.embedder, texts)
	}
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks",
			len(res.Embeddings), len(chunks))
	}

	out := make([]chunk.Chunk, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].WithVector(res.Embeddings[i])
	}
	return out, nil
}

func (ing *Ingestor) skip(report *Report, colReport *CollectionReport, path, reason string) {
	skipped := SkippedDocument{Path: path, Reason: reason}
	if report != nil {
		report.Skipped = append(report.Skipped, skipped)
	}
	if colReport != nil {
		colReport.Skipped = append(colReport.Skipped, skipped)
	}
	metrics.IngestSkippedDocumentsTotal.WithLabelValues("error").Inc()
	ing.log.Warn("document skipped", zap.String("path", path), zap.String("reason", reason))
}

func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
