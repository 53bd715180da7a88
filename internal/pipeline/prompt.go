package pipeline

import (
	"fmt"
	"strings"

	"github.com/rchow93/AgentRAG/internal/domain/answer"
)

const systemPrompt = `You are an expert assistant with deep knowledge about the content in the provided context.
Answer the question based only on the provided context.`

const contextSeparator = "\n\n---\n\n"

// buildPrompt assembles the user prompt: retrieved chunks joined by
// separators, truncated to maxChars, followed by the question. Truncation
// drops whole chunks from the tail rather than cutting mid-chunk, so the
// model never sees a sentence sliced in half. The returned slice holds
// the results that actually made it into the prompt; provenance is
// computed from those, not from everything retrieved.
func buildPrompt(question string, results []answer.Result, maxChars int) (string, []answer.Result) {
	var ctxParts []string
	var included []answer.Result
	used := 0
	for i := range results {
		text := results[i].Text()
		cost := len(text)
		if len(ctxParts) > 0 {
			cost += len(contextSeparator)
		}
		if maxChars > 0 && used+cost > maxChars && len(ctxParts) > 0 {
			break
		}
		ctxParts = append(ctxParts, text)
		included = append(included, results[i])
		used += cost
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nYour answer (be specific and cite sources when possible):",
		strings.Join(ctxParts, contextSeparator), question)
	return prompt, included
}
