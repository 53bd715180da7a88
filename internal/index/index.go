// Package index implements the collection-oriented vector index: chunk
// storage plus nearest-neighbor search over per-collection FT indexes.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rchow93/AgentRAG/internal/db"
	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/domain/answer"
	"github.com/rchow93/AgentRAG/internal/domain/chunk"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
)

// store is the consumer interface for the index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Index stores chunks and serves nearest-neighbor queries, keyed by
// collection name. Collections are created lazily on first upsert and pin
// the embedding model they were built with.
type Index struct {
	store     store
	keyPrefix string
	hnsw      HNSWConfig
}

// New creates a vector index over the given store.
func New(s store, keyPrefix string) *Index {
	if keyPrefix == "" {
		keyPrefix = "agentrag:"
	}
	return &Index{store: s, keyPrefix: keyPrefix, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (x *Index) WithHNSW(cfg HNSWConfig) *Index {
	if cfg.M > 0 {
		x.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		x.hnsw.EFConstruct = cfg.EFConstruct
	}
	return x
}

func (x *Index) metaKey(name string) string { return x.keyPrefix + "collection:" + name }
func (x *Index) chunkKey(name, id string) string { return x.chunkPrefix(name) + id }
func (x *Index) chunkPrefix(name string) string { return x.keyPrefix + "chunk:" + name + ":" }
func (x *Index) ftName(name string) string { return x.keyPrefix + "idx:" + name }

// Upsert embeds nothing: chunks must already carry vectors. Chunk hashes
// and collection metadata commit together in one atomic batch, so a
// concurrent Query never observes a half-written batch, whether the
// collection is new or being re-ingested.
//
// Re-upserting into an existing collection is additive. A collection
// indexed with a different embedding model rejects the batch with
// ErrModelMismatch.
func (x *Index) Upsert(ctx context.Context, name, model string, chunks []chunk.Chunk) (domcol.Collection, error) {
	if len(chunks) == 0 {
		return domcol.Collection{}, fmt.Errorf("upsert %s: no chunks", name)
	}

	dim := len(chunks[0].Vector())
	if dim == 0 {
		return domcol.Collection{}, fmt.Errorf("upsert %s: chunks carry no vectors", name)
	}
	for i := range chunks {
		if len(chunks[i].Vector()) != dim {
			return domcol.Collection{}, fmt.Errorf("upsert %s: chunk %s: %w",
				name, chunks[i].ID(), domain.ErrVectorDimMismatch)
		}
	}

	col, err := x.Get(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		col, err = domcol.New(name, model, dim)
		if err != nil {
			return domcol.Collection{}, fmt.Errorf("create collection %s: %w", name, err)
		}
		if err := x.createFTIndex(ctx, name, dim); err != nil {
			return domcol.Collection{}, err
		}
	case err != nil:
		return domcol.Collection{}, err
	default:
		if !col.SameModel(model) {
			return domcol.Collection{}, fmt.Errorf(
				"collection %s indexed with %s, got %s: %w",
				name, col.EmbeddingModel(), model, domain.ErrModelMismatch)
		}
		if col.VectorDim() != dim {
			return domcol.Collection{}, fmt.Errorf("collection %s expects dim %d, got %d: %w",
				name, col.VectorDim(), dim, domain.ErrVectorDimMismatch)
		}
	}

	// Chunks and updated metadata commit in one transactional batch, so a
	// concurrent query never sees part of an in-flight re-ingestion.
	seqBase := col.ChunkCount()
	items := make([]db.HashSetItem, 0, len(chunks)+1)
	for i := range chunks {
		items = append(items, db.HashSetItem{
			Key:    x.chunkKey(name, chunks[i].ID()),
			Fields: chunkToHash(&chunks[i], seqBase+i),
		})
	}
	col = col.WithChunkCount(col.ChunkCount() + len(chunks))
	items = append(items, db.HashSetItem{Key: x.metaKey(name), Fields: collectionToHash(col)})

	if err := x.store.HSetMulti(ctx, items); err != nil {
		return domcol.Collection{}, fmt.Errorf("commit batch for %s: %w", name, err)
	}

	return col, nil
}

func (x *Index) createFTIndex(ctx context.Context, name string, dim int) error {
	exists, err := x.store.IndexExists(ctx, x.ftName(name))
	if err != nil {
		return fmt.Errorf("check index for %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(x.ftName(name)).
		Prefix(x.chunkPrefix(name)).
		Tag("source").
		Numeric("position").
		VectorHNSW("vector", dim, x.hnsw.M, x.hnsw.EFConstruct).
		Build()

	if err := x.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index for %s: %w", name, err)
	}
	return nil
}

// Query returns at most k chunks ranked by descending cosine similarity.
// Ties are broken by insertion order. Unknown collections fail with
// domain.ErrNotFound rather than returning empty results.
func (x *Index) Query(ctx context.Context, name string, vector []float32, k int) ([]answer.Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query %s: k must be positive", name)
	}

	col, err := x.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != col.VectorDim() {
		return nil, fmt.Errorf("query %s: expected dim %d, got %d: %w",
			name, col.VectorDim(), len(vector), domain.ErrVectorDimMismatch)
	}

	res, err := x.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    x.ftName(name),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"text", "source", "position", "seq", "__vector_score"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("search %s: %w", name, err)
	}

	hits := make([]hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, entryToHit(e, x.chunkPrefix(name)))
	}

	// Deterministic ranking: score desc, then insertion order asc.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seq < hits[j].seq
	})

	out := make([]answer.Result, len(hits))
	for i, h := range hits {
		out[i] = answer.NewResult(h.id, h.text, h.source, h.position, h.score)
	}
	return out, nil
}

// Get retrieves collection metadata by name.
func (x *Index) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := x.store.HGetAll(ctx, x.metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return collectionFromHash(m)
}

// Count reports the number of chunks the collection's FT index actually
// holds. Unlike the chunk_count metadata field this asks RediSearch, so it
// reflects documents still pending index cleanup after a drop.
func (x *Index) Count(ctx context.Context, name string) (int, error) {
	if _, err := x.Get(ctx, name); err != nil {
		return 0, err
	}
	n, err := x.store.SearchCount(ctx, x.ftName(name), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// List returns all known collections sorted by creation time.
func (x *Index) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := x.store.Scan(ctx, x.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	maps, err := x.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	cols := make([]domcol.Collection, 0, len(maps))
	for _, m := range maps {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	sort.Slice(cols, func(i, j int) bool { return cols[i].CreatedAt() < cols[j].CreatedAt() })
	return cols, nil
}

// Drop removes a collection: its FT index, metadata, and all chunk hashes.
// Dropping an unknown collection fails with domain.ErrNotFound.
func (x *Index) Drop(ctx context.Context, name string) error {
	exists, err := x.store.Exists(ctx, x.metaKey(name))
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := x.store.DropIndex(ctx, x.ftName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index for %s: %w", name, err)
	}

	keys, err := x.store.Scan(ctx, x.chunkPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan chunks for %s: %w", name, err)
	}
	if err := x.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", name, err)
	}

	if err := x.store.Del(ctx, x.metaKey(name)); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}
