// Package prompt holds the answer-grounding instruction template. The
// template is an injected configuration value validated at startup, not a
// literal buried in the query path; downstream consumers pattern-match on the
// sentinel phrase, so it is part of the contract.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

const (
	// Sentinel is the exact phrase the model must emit when the context does
	// not contain the answer.
	Sentinel = "The answer is not available in the context."

	contextPlaceholder  = "{context}"
	questionPlaceholder = "{question}"

	// ContextDelimiter separates retrieved chunks inside the context block.
	ContextDelimiter = "\n\n---\n\n"
)

// Default is the medical-assistant grounding template.
const Default = `You are a highly knowledgeable and precise medical assistant. Use the provided context from the medical report to answer the question in a clear, concise, and accurate manner.

- If the information is directly available in the context, provide a detailed answer.
- If the information is partially available, clarify what is missing and answer based on the available details.
- If the answer is not available in the context, respond with:
  "The answer is not available in the context."

Always ensure your response adheres to the following:
1. Use medical terminology appropriately but keep it understandable for the user.
2. Provide additional insights or clarifications based on the data when relevant.
3. Avoid guessing or providing incorrect information under any circumstances.

Context:
{context}

Question:
{question}

Answer:
`

// Template is a validated grounding template.
type Template struct {
	text string
}

// New validates that the template carries both placeholders and the sentinel
// phrase the grounding contract requires.
func New(text string) (*Template, error) {
	for _, required := range []string{contextPlaceholder, questionPlaceholder, Sentinel} {
		if !strings.Contains(text, required) {
			return nil, fmt.Errorf("%w: prompt template missing %q", domain.ErrInvalidConfig, required)
		}
	}
	return &Template{text: text}, nil
}

// MustDefault returns the built-in template; the default is known valid.
func MustDefault() *Template {
	t, err := New(Default)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes the context block and question into the template.
func (t *Template) Render(contextBlock, question string) string {
	return strings.NewReplacer(
		contextPlaceholder, contextBlock,
		questionPlaceholder, question,
	).Replace(t.text)
}

// BuildContext joins the retrieved chunk texts in retrieval order with a
// deterministic delimiter.
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Chunk.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ContextDelimiter)
}
