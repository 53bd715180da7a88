package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rchow93/AgentRAG/internal/config"
	"github.com/rchow93/AgentRAG/internal/confluence"
	dbRedis "github.com/rchow93/AgentRAG/internal/db/redis"
	"github.com/rchow93/AgentRAG/internal/index"
	"github.com/rchow93/AgentRAG/internal/ingest"
	logpkg "github.com/rchow93/AgentRAG/internal/logger"
	"github.com/rchow93/AgentRAG/internal/metrics"
	"github.com/rchow93/AgentRAG/internal/pipeline"
	chiTransport "github.com/rchow93/AgentRAG/internal/transport/chi"
	openaiTransport "github.com/rchow93/AgentRAG/internal/transport/openai"
	"github.com/rchow93/AgentRAG/internal/version"
)

func main() {
	ingestOnly := flag.Bool("ingest", false, "run one ingestion pass and exit")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting AgentRAG",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterAIMetrics()
	metrics.RegisterHTTPMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Embedding.Model,
		Dimensions:     cfg.Embedding.Dimensions,
		RequestTimeout: time.Duration(cfg.Embedding.RequestTimeoutSec) * time.Second,
		Logger:         logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Generation.Model,
		RequestTimeout: time.Duration(cfg.Generation.RequestTimeoutSec) * time.Second,
		Logger:         logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	idx := index.New(store, cfg.Storage.KeyPrefix)

	registry := ingest.NewRegistry()
	for ext, p := range cfg.Ingest.Profiles {
		if err := registry.SetProfile(ext, ingest.ChunkProfile(p)); err != nil {
			logger.Fatal("Invalid ingest profile", zap.String("ext", ext), zap.Error(err))
		}
	}
	ingestor := ingest.New(registry, embedder, idx, logger)

	if *ingestOnly {
		report, err := ingestor.Run(ctx, cfg.Ingest.Root)
		if err != nil {
			logger.Fatal("Ingestion failed", zap.Error(err))
		}
		_ = json.NewEncoder(os.Stdout).Encode(report)
		logger.Info("Ingestion complete", zap.Int("collections", len(report.Collections)))
		return
	}

	pipe := pipeline.New(idx, embedder, generator, pipeline.Options{
		TopK:            cfg.Retrieval.TopK,
		MaxContextChars: cfg.Generation.MaxContextChars,
		FanoutWorkers:   cfg.Retrieval.FanoutWorkers,
	}, logger)

	docs := confluence.New(&confluence.Config{
		BaseURL:  cfg.Confluence.BaseURL,
		Username: cfg.Confluence.Username,
		APIToken: cfg.Confluence.APIToken,
		SpaceKey: cfg.Confluence.SpaceKey,
		Logger:   logger,
	})

	server := chiTransport.NewServer(pipe, idx, ingestor, docs, store, cfg.Ingest.Root, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
