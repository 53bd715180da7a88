package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAIMetrics()
	os.Exit(m.Run())
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func newEmbedServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		for i, vec := range vectors {
			resp.Data = append(resp.Data, embeddingData{
				Object: "embedding", Embedding: vec, Index: i,
			})
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&EmbedderConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-model",
		Dimensions: 4,
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3, 0.4}
	server := newEmbedServer(t, [][]float32{want})
	defer server.Close()

	result, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(want) {
		t.Fatalf("len(Embedding) = %d, want %d", len(result.Embedding), len(want))
	}
	for i := range want {
		if result.Embedding[i] != want[i] {
			t.Errorf("Embedding[%d] = %f, want %f", i, result.Embedding[i], want[i])
		}
	}
	if result.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedder_BatchEmbed(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	server := newEmbedServer(t, vectors)
	defer server.Close()

	result, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(),
		[]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("len(Embeddings) = %d, want 3", len(result.Embeddings))
	}
	if result.Embeddings[2][0] != 1 || result.Embeddings[2][1] != 1 {
		t.Errorf("Embeddings[2] = %v, want [1 1]", result.Embeddings[2])
	}
}

func TestEmbedder_BatchEmbed_Empty(t *testing.T) {
	result, err := newTestEmbedder("http://unused").BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(result.Embeddings) != 0 {
		t.Errorf("len(Embeddings) = %d, want 0", len(result.Embeddings))
	}
}

func TestEmbedder_CountMismatch(t *testing.T) {
	server := newEmbedServer(t, [][]float32{{1, 0}})
	defer server.Close()

	_, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid api key"}`))
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system+user", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "the answer"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 5, "total_tokens": 25}
		}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	result, err := gen.Generate(context.Background(), "you are helpful", "say the answer")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "the answer" {
		t.Errorf("Text = %q, want %q", result.Text, "the answer")
	}
	if result.TotalTokens != 25 {
		t.Errorf("TotalTokens = %d, want 25", result.TotalTokens)
	}
}

func TestGenerator_SerializesZeroTemperature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		// omitempty would drop a plain zero and the API would default to 1.
		raw, ok := body["temperature"]
		if !ok {
			t.Error("temperature missing from request body")
		}
		var temp float64
		if err := json.Unmarshal(raw, &temp); err != nil {
			t.Fatalf("parse temperature: %v", err)
		}
		if temp > 1e-20 {
			t.Errorf("temperature = %v, want effectively zero", temp)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	if _, err := gen.Generate(context.Background(), "sys", "prompt"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGenerator_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	gen := NewGenerator(&GeneratorConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "test-model",
		RequestTimeout: 50 * time.Millisecond,
		Logger:         zap.NewNop(),
	})

	_, err := gen.Generate(context.Background(), "sys", "prompt")
	if err == nil {
		t.Fatal("Generate should fail when the upstream hangs past the timeout")
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestEmbedder_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	emb := NewEmbedder(&EmbedderConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "test-model",
		Dimensions:     4,
		RequestTimeout: 50 * time.Millisecond,
		Logger:         zap.NewNop(),
	})

	_, err := emb.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("Embed should fail when the upstream hangs past the timeout")
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestGenerator_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := gen.Generate(context.Background(), "sys", "prompt")
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail present", `{"detail": "quota exceeded"}`, "quota exceeded"},
		{"no detail", `{"error": "nope"}`, ""},
		{"invalid json", `not json`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractDetail([]byte(tc.body)); got != tc.want {
				t.Errorf("extractDetail() = %q, want %q", got, tc.want)
			}
		})
	}
}
