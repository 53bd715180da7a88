package agentrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/rchow93/AgentRAG/internal/db/redis"
	"github.com/rchow93/AgentRAG/internal/domain/answer"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
	"github.com/rchow93/AgentRAG/internal/index"
	"github.com/rchow93/AgentRAG/internal/ingest"
	"github.com/rchow93/AgentRAG/internal/pipeline"
	openaiTransport "github.com/rchow93/AgentRAG/internal/transport/openai"
)

const defaultReadinessTimeout = 10 * time.Second

// Answer is a synthesized answer with its source documents.
type Answer = answer.Answer

// CollectionAnswer is one entry of a fan-out result.
type CollectionAnswer = answer.CollectionAnswer

// Report summarizes an ingestion run.
type Report = ingest.Report

// Client is the embedded SDK entry point.
type Client struct {
	store    *dbRedis.Store
	index    *index.Index
	ingestor *ingest.Ingestor
	pipeline *pipeline.Service
}

// New creates a Client and connects to Redis. The provided context bounds
// the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		embedModel: "text-embedding-3-small",
		embedDims:  1536,
		genModel:   "gpt-4o-mini",
		keyPrefix:  "agentrag:",

		requestTimeout: 60 * time.Second,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("agentrag: database address required (use WithRedis)")
	}
	if cfg.apiKey == "" {
		return nil, errors.New("agentrag: API key required (use WithOpenAI)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("agentrag: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("agentrag: database not ready: %w", err)
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:         cfg.apiKey,
		BaseURL:        cfg.baseURL,
		Model:          cfg.embedModel,
		Dimensions:     cfg.embedDims,
		RequestTimeout: cfg.requestTimeout,
		Logger:         cfg.logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:         cfg.apiKey,
		BaseURL:        cfg.baseURL,
		Model:          cfg.genModel,
		RequestTimeout: cfg.requestTimeout,
		Logger:         cfg.logger,
	})

	idx := index.New(store, cfg.keyPrefix)

	return &Client{
		store:    store,
		index:    idx,
		ingestor: ingest.New(ingest.NewRegistry(), embedder, idx, cfg.logger),
		pipeline: pipeline.New(idx, embedder, generator, pipeline.Options{
			TopK:            cfg.topK,
			MaxContextChars: cfg.maxContext,
			FanoutWorkers:   cfg.fanoutLimit,
		}, cfg.logger),
	}, nil
}

// Ingest runs a full ingestion pass over the documents root.
func (c *Client) Ingest(ctx context.Context, root string) (*Report, error) {
	return c.ingestor.Run(ctx, root)
}

// Ask answers a question against one collection.
func (c *Client) Ask(ctx context.Context, collection, question string) (*Answer, error) {
	return c.pipeline.Answer(ctx, collection, question)
}

// AskAll fans the question out across every collection.
func (c *Client) AskAll(ctx context.Context, question string) ([]CollectionAnswer, error) {
	return c.pipeline.AnswerAll(ctx, question)
}

// Collections lists all collections.
func (c *Client) Collections(ctx context.Context) ([]domcol.Collection, error) {
	return c.index.List(ctx)
}

// DropCollection deletes a collection and all its chunks.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	return c.index.Drop(ctx, name)
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}
