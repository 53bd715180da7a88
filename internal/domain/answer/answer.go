package answer

// Result is a single retrieval hit: a stored chunk plus its relevance score.
type Result struct {
	id       string
	text     string
	source   string
	position int
	score    float64
}

// NewResult creates a retrieval result.
func NewResult(id, text, source string, position int, score float64) Result {
	return Result{id: id, text: text, source: source, position: position, score: score}
}

// ID returns the chunk identifier.
func (r *Result) ID() string { return r.id }

// Text returns the chunk text.
func (r *Result) Text() string { return r.text }

// Source returns the originating document path.
func (r *Result) Source() string { return r.source }

// Position returns the chunk position within its source document.
func (r *Result) Position() int { return r.position }

// Score returns the similarity score (1 = identical direction).
func (r *Result) Score() float64 { return r.score }

// Answer is a synthesized response plus the provenance of the chunks that
// were supplied to generation. Sources lists distinct document paths in
// retrieval rank order — what was offered, not necessarily what was used.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

// CollectionAnswer is one entry of a fan-out result: either an answer or a
// structured error for that collection, never both.
type CollectionAnswer struct {
	Collection string  `json:"collection"`
	Answer     *Answer `json:"answer,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Sources extracts distinct source paths from ranked results, preserving
// rank order.
func Sources(results []Result) []string {
	seen := make(map[string]bool, len(results))
	out := make([]string, 0, len(results))
	for i := range results {
		src := results[i].Source()
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}
