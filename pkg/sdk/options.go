package agentrag

import (
	"time"

	"go.uber.org/zap"
)

type clientConfig struct {
	addrs    []string
	password string

	apiKey      string
	baseURL     string
	embedModel  string
	embedDims   int
	genModel    string
	keyPrefix   string
	topK        int
	maxContext  int
	fanoutLimit int

	requestTimeout time.Duration

	logger *zap.Logger
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

// WithRedis sets the Redis connection.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.addrs = addrs
		cfg.password = password
	})
}

// WithOpenAI sets the OpenAI-compatible API credentials. baseURL is
// optional; empty uses the official endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.apiKey = apiKey
		cfg.baseURL = baseURL
	})
}

// WithEmbeddingModel overrides the embedding model and dimensions.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.embedModel = model
		cfg.embedDims = dimensions
	})
}

// WithGenerationModel overrides the generation model.
func WithGenerationModel(model string) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.genModel = model })
}

// WithKeyPrefix namespaces all Redis keys.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.keyPrefix = prefix })
}

// WithTopK sets the number of chunks retrieved per collection.
func WithTopK(k int) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.topK = k })
}

// WithMaxContextChars bounds the assembled generation context.
func WithMaxContextChars(n int) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.maxContext = n })
}

// WithFanoutWorkers bounds concurrent collections in AskAll.
func WithFanoutWorkers(n int) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.fanoutLimit = n })
}

// WithRequestTimeout bounds each embedding and generation API call.
// Default is 60 seconds; zero or negative leaves calls unbounded.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.requestTimeout = d })
}

// WithLogger attaches a zap logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.logger = l })
}
