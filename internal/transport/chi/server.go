// Package chi implements the HTTP API: ingestion, collection management,
// retrieval-synthesis queries, and the documentation search adapter.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rchow93/AgentRAG/internal/confluence"
	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/domain/answer"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
	"github.com/rchow93/AgentRAG/internal/ingest"
)

// Pipeline answers questions against one or all collections.
type Pipeline interface {
	Answer(ctx context.Context, collection, question string) (*answer.Answer, error)
	AnswerAll(ctx context.Context, question string) ([]answer.CollectionAnswer, error)
}

// CollectionStore lists and drops collections.
type CollectionStore interface {
	List(ctx context.Context) ([]domcol.Collection, error)
	Drop(ctx context.Context, name string) error
}

// Ingestor runs a full ingestion pass over a documents root.
type Ingestor interface {
	Run(ctx context.Context, root string) (*ingest.Report, error)
}

// DocsSearcher is the documentation search adapter.
type DocsSearcher interface {
	Search(ctx context.Context, query, spaceKey string) *confluence.SearchPayload
	Page(ctx context.Context, pageID string) *confluence.PagePayload
}

// Pinger checks database connectivity for health reporting.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	pipeline      Pipeline
	collections   CollectionStore
	ingestor      Ingestor
	docs          DocsSearcher
	pinger        Pinger
	ingestRoot    string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline Pipeline,
	collections CollectionStore,
	ingestor Ingestor,
	docs DocsSearcher,
	pinger Pinger,
	ingestRoot string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline:    pipeline,
		collections: collections,
		ingestor:    ingestor,
		docs:        docs,
		pinger:      pinger,
		ingestRoot:  ingestRoot,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrCodeCollectionNotFound),
		sentinelHandler(domain.ErrModelMismatch, http.StatusConflict, ErrCodeModelMismatch),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrCodeVectorDimMismatch),
		sentinelHandler(domain.ErrUnsupportedDocument, http.StatusBadRequest, ErrCodeUnsupportedDocument),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, ErrCodeConfiguration),
		sentinelHandler(domain.ErrTransport, http.StatusBadGateway, ErrCodeUpstreamError),
	}
	return s
}

// Routes registers all handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/ingest", s.runIngest)
	r.Get("/collections", s.listCollections)
	r.Delete("/collections/{collection}", s.deleteCollection)
	r.Post("/collections/{collection}/query", s.queryCollection)
	r.Post("/query", s.queryAll)
	r.Get("/docs/search", s.searchDocs)
	r.Get("/docs/pages/{pageID}", s.getDocsPage)
	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())
}

type ingestRequest struct {
	Root string `json:"root,omitempty"`
}

// runIngest handles POST /ingest. The body may override the configured
// documents root.
func (s *Server) runIngest(w http.ResponseWriter, r *http.Request) {
	root := s.ingestRoot
	if r.ContentLength > 0 {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if req.Root != "" {
			root = req.Root
		}
	}

	report, err := s.ingestor.Run(r.Context(), root)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type collectionResponse struct {
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model"`
	VectorDim      int    `json:"vector_dim"`
	ChunkCount     int    `json:"chunk_count"`
	CreatedAt      int64  `json:"created_at"`
	Revision       int    `json:"revision"`
}

type collectionListResponse struct {
	Items []collectionResponse `json:"items"`
}

// listCollections handles GET /collections.
func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionResponse{
			Name:           c.Name(),
			EmbeddingModel: c.EmbeddingModel(),
			VectorDim:      c.VectorDim(),
			ChunkCount:     c.ChunkCount(),
			CreatedAt:      c.CreatedAt(),
			Revision:       c.Revision(),
		}
	}
	writeJSON(w, http.StatusOK, collectionListResponse{Items: items})
}

// deleteCollection handles DELETE /collections/{collection}.
func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	if err := s.collections.Drop(r.Context(), name); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	Question string `json:"question"`
}

// queryCollection handles POST /collections/{collection}/query.
func (s *Server) queryCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Question is required")
		return
	}

	a, err := s.pipeline.Answer(r.Context(), name, req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type queryAllResponse struct {
	Question string                    `json:"question"`
	Answers  []answer.CollectionAnswer `json:"answers"`
}

// queryAll handles POST /query: fan-out across all collections.
func (s *Server) queryAll(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Question is required")
		return
	}

	answers, err := s.pipeline.AnswerAll(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryAllResponse{Question: req.Question, Answers: answers})
}

// searchDocs handles GET /docs/search. The adapter never fails: errors
// come back inside the payload with HTTP 200.
func (s *Server) searchDocs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Query parameter q is required")
		return
	}
	space := r.URL.Query().Get("space")

	writeJSON(w, http.StatusOK, s.docs.Search(r.Context(), query, space))
}

// getDocsPage handles GET /docs/pages/{pageID}.
func (s *Server) getDocsPage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	writeJSON(w, http.StatusOK, s.docs.Page(r.Context(), pageID))
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK
	if err := s.pinger.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}
