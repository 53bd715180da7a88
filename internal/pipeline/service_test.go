package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/rchow93/AgentRAG/internal/domain"
	"github.com/rchow93/AgentRAG/internal/domain/answer"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
)

const testModel = "text-embedding-3-small"

type fakeRetriever struct {
	mu          sync.Mutex
	collections map[string][]answer.Result
	queryErrs   map[string]error
	lastK       int
	model       string
}

func newFakeRetriever() *fakeRetriever {
	return &fakeRetriever{
		collections: make(map[string][]answer.Result),
		queryErrs:   make(map[string]error),
		model:       testModel,
	}
}

func (f *fakeRetriever) Get(_ context.Context, name string) (domcol.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; !ok {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return domcol.Reconstruct(name, f.model, 3, len(f.collections[name]), 0, 1), nil
}

func (f *fakeRetriever) Query(_ context.Context, name string, _ []float32, k int) ([]answer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.queryErrs[name]; err != nil {
		return nil, err
	}
	results, ok := f.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.lastK = k
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (f *fakeRetriever) List(_ context.Context) ([]domcol.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cols := make([]domcol.Collection, 0, len(f.collections))
	for name := range f.collections {
		cols = append(cols, domcol.Reconstruct(name, f.model, 3, 1, 0, 1))
	}
	return cols, nil
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

func (f *fakeEmbedder) Model() string { return testModel }

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	text    string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, _, prompt string) (domain.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.GenerationResult{}, f.err
	}
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return domain.GenerationResult{Text: f.text, TotalTokens: 10}, nil
}

func (f *fakeGenerator) Model() string { return "gpt-4o-mini" }

func newService(r *fakeRetriever, g *fakeGenerator, opts Options) *Service {
	return New(r, &fakeEmbedder{}, g, opts, zap.NewNop())
}

func TestAnswer_HappyPath(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", "servant leadership means serving first", "leadership.pdf", 0, 0.9),
		answer.NewResult("c2", "another passage on leading", "leadership.pdf", 3, 0.8),
		answer.NewResult("c3", "unrelated cooking tips", "cooking.pdf", 1, 0.5),
	}
	g := &fakeGenerator{text: "Servant leadership is about serving first."}

	a, err := newService(r, g, Options{}).Answer(context.Background(), "books", "what is servant leadership?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if a.Text != g.text {
		t.Errorf("Text = %q", a.Text)
	}
	// Distinct sources, rank order preserved.
	want := []string{"leadership.pdf", "cooking.pdf"}
	if len(a.Sources) != len(want) {
		t.Fatalf("Sources = %v, want %v", a.Sources, want)
	}
	for i := range want {
		if a.Sources[i] != want[i] {
			t.Errorf("Sources[%d] = %q, want %q", i, a.Sources[i], want[i])
		}
	}
	if r.lastK != 4 {
		t.Errorf("retrieval k = %d, want default 4", r.lastK)
	}
}

func TestAnswer_PromptContainsContextAndQuestion(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", "alpha passage", "a.pdf", 0, 0.9),
		answer.NewResult("c2", "beta passage", "a.pdf", 1, 0.8),
	}
	g := &fakeGenerator{text: "ok"}

	if _, err := newService(r, g, Options{}).Answer(context.Background(), "books", "the question?"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	prompt := g.prompts[0]
	if !strings.Contains(prompt, "alpha passage") || !strings.Contains(prompt, "beta passage") {
		t.Error("prompt missing retrieved chunks")
	}
	if !strings.Contains(prompt, "---") {
		t.Error("prompt missing chunk separator")
	}
	if !strings.Contains(prompt, "the question?") {
		t.Error("prompt missing the question")
	}
}

func TestAnswer_ContextTruncation(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", strings.Repeat("a", 100), "a.pdf", 0, 0.9),
		answer.NewResult("c2", strings.Repeat("b", 100), "b.pdf", 0, 0.8),
		answer.NewResult("c3", strings.Repeat("c", 100), "c.pdf", 0, 0.7),
	}
	g := &fakeGenerator{text: "ok"}

	a, err := newService(r, g, Options{MaxContextChars: 150}).
		Answer(context.Background(), "books", "q?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if strings.Contains(g.prompts[0], "bbb") {
		t.Error("second chunk should have been truncated away")
	}
	// Sources reflect what went into the prompt, not everything retrieved.
	if len(a.Sources) != 1 || a.Sources[0] != "a.pdf" {
		t.Errorf("Sources = %v, want [a.pdf]", a.Sources)
	}
}

func TestAnswer_UnknownCollection(t *testing.T) {
	g := &fakeGenerator{text: "ok"}
	_, err := newService(newFakeRetriever(), g, Options{}).
		Answer(context.Background(), "missing", "q?")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if g.calls != 0 {
		t.Error("generation must not run for an unknown collection")
	}
}

func TestAnswer_ModelMismatch(t *testing.T) {
	r := newFakeRetriever()
	r.model = "text-embedding-ada-002"
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", "text", "a.pdf", 0, 0.9),
	}
	g := &fakeGenerator{text: "ok"}

	_, err := newService(r, g, Options{}).Answer(context.Background(), "books", "q?")
	if !errors.Is(err, domain.ErrModelMismatch) {
		t.Errorf("error = %v, want ErrModelMismatch", err)
	}
	if g.calls != 0 {
		t.Error("generation must not run on a model mismatch")
	}
}

func TestAnswer_EmptyResults(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{}
	g := &fakeGenerator{text: "should not be called"}

	a, err := newService(r, g, Options{}).Answer(context.Background(), "books", "q?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if g.calls != 0 {
		t.Error("generation must not run with no retrieved chunks")
	}
	if a.Sources == nil || len(a.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil", a.Sources)
	}
}

func TestAnswer_GenerationFailure(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", "text", "a.pdf", 0, 0.9),
	}
	g := &fakeGenerator{err: domain.ErrTransport}

	_, err := newService(r, g, Options{}).Answer(context.Background(), "books", "q?")
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestAnswerAll_FanoutIsolation(t *testing.T) {
	r := newFakeRetriever()
	r.collections["books"] = []answer.Result{
		answer.NewResult("c1", "book text", "a.pdf", 0, 0.9),
	}
	r.collections["notes"] = []answer.Result{
		answer.NewResult("c2", "note text", "n.txt", 0, 0.9),
	}
	r.collections["broken"] = []answer.Result{
		answer.NewResult("c3", "x", "x.pdf", 0, 0.9),
	}
	r.queryErrs["broken"] = errors.New("index corrupted")
	g := &fakeGenerator{text: "an answer"}

	answers, err := newService(r, g, Options{FanoutWorkers: 2}).
		AnswerAll(context.Background(), "q?")
	if err != nil {
		t.Fatalf("AnswerAll() error = %v", err)
	}
	if len(answers) != 3 {
		t.Fatalf("len(answers) = %d, want 3", len(answers))
	}

	// Sorted by collection name: books, broken, notes.
	if answers[0].Collection != "books" || answers[0].Answer == nil || answers[0].Error != "" {
		t.Errorf("books entry = %+v, want an answer", answers[0])
	}
	if answers[1].Collection != "broken" || answers[1].Answer != nil || answers[1].Error == "" {
		t.Errorf("broken entry = %+v, want a structured error", answers[1])
	}
	if answers[2].Collection != "notes" || answers[2].Answer == nil {
		t.Errorf("notes entry = %+v, want an answer", answers[2])
	}
}

func TestAnswerAll_NoCollections(t *testing.T) {
	g := &fakeGenerator{text: "ok"}
	answers, err := newService(newFakeRetriever(), g, Options{}).
		AnswerAll(context.Background(), "q?")
	if err != nil {
		t.Fatalf("AnswerAll() error = %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("len(answers) = %d, want 0", len(answers))
	}
}

func TestBuildPrompt_FirstChunkAlwaysIncluded(t *testing.T) {
	results := []answer.Result{
		answer.NewResult("c1", strings.Repeat("x", 500), "a.pdf", 0, 0.9),
	}
	prompt, included := buildPrompt("q?", results, 100)
	if len(included) != 1 {
		t.Fatalf("len(included) = %d, want 1 (top chunk always survives)", len(included))
	}
	if !strings.Contains(prompt, "xxx") {
		t.Error("prompt missing the top chunk")
	}
}
