package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/domain/answer"
)

// Options configures retrieval and context assembly.
type Options struct {
	// TopK is the number of chunks retrieved per collection.
	TopK int
	// MaxContextChars bounds the assembled context passed to generation.
	MaxContextChars int
	// FanoutWorkers bounds concurrent per-collection pipelines in AnswerAll.
	FanoutWorkers int
}

// Service runs the retrieval-synthesis pipeline over the vector index.
type Service struct {
	retriever Retriever
	embedder  domain.Embedder
	generator domain.Generator
	opts      Options
	log       *zap.Logger
}

// New creates a pipeline service. Zero option fields take defaults:
// TopK 4, MaxContextChars 12000, FanoutWorkers 4.
func New(retriever Retriever, embedder domain.Embedder, generator domain.Generator, opts Options, log *zap.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 12000
	}
	if opts.FanoutWorkers <= 0 {
		opts.FanoutWorkers = 4
	}
	return &Service{
		retriever: retriever,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
		log:       log,
	}
}

// Answer runs the pipeline against one collection: embed the question,
// retrieve TopK chunks, assemble bounded context, generate. The collection
// must exist and must have been indexed with the service's embedding
// model; a mismatch fails with domain.ErrModelMismatch before any API
// call is spent.
func (s *Service) Answer(ctx context.Context, collection, question string) (*answer.Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	col, err := s.retriever.Get(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !col.SameModel(s.embedder.Model()) {
		return nil, fmt.Errorf("collection %s indexed with %s, queries use %s: %w",
			collection, col.EmbeddingModel(), s.embedder.Model(), domain.ErrModelMismatch)
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := s.retriever.Query(ctx, collection, emb.Embedding, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve from %s: %w", collection, err)
	}
	if len(results) == 0 {
		return &answer.Answer{
			Text:    "No relevant content found in this collection.",
			Sources: []string{},
		}, nil
	}

	prompt, included := buildPrompt(question, results, s.opts.MaxContextChars)

	gen, err := s.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	s.log.Debug("answer generated",
		zap.String("collection", collection),
		zap.Int("retrieved", len(results)),
		zap.Int("in_context", len(included)),
		zap.Int("total_tokens", gen.TotalTokens))

	return &answer.Answer{
		Text:    gen.Text,
		Sources: answer.Sources(included),
	}, nil
}

// AnswerAll fans the question out across every collection with bounded
// concurrency. A failing collection contributes a structured error entry
// and never disturbs its siblings; the aggregate is sorted by collection
// name for stable output.
func (s *Service) AnswerAll(ctx context.Context, question string) ([]answer.CollectionAnswer, error) {
	cols, err := s.retriever.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if len(cols) == 0 {
		return []answer.CollectionAnswer{}, nil
	}

	answers := make([]answer.CollectionAnswer, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FanoutWorkers)
	for i, col := range cols {
		i, col := i, col
		g.Go(func() error {
			name := col.Name()
			a, err := s.Answer(gctx, name, question)
			if err != nil {
				s.log.Warn("collection answer failed",
					zap.String("collection", name), zap.Error(err))
				answers[i] = answer.CollectionAnswer{Collection: name, Error: err.Error()}
				return nil
			}
			answers[i] = answer.CollectionAnswer{Collection: name, Answer: a}
			return nil
		})
	}
	// Workers never return errors; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(answers, func(i, j int) bool { return answers[i].Collection < answers[j].Collection })
	return answers, nil
}
