package service

import (
	"context"
	"fmt"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/prompt"
)

// DefaultTopK is how many chunks go into the context of one generation call.
const DefaultTopK = 4

// Engine answers one question per call against the persisted index. The
// index is re-read on every call so a query always sees the latest completed
// ingestion run.
type Engine struct {
	store     domain.Store
	embedder  domain.Embedder
	generator domain.Generator
	template  *prompt.Template
	topK      int
}

// NewEngine wires the query collaborators. topK <= 0 falls back to
// DefaultTopK.
func NewEngine(store domain.Store, embedder domain.Embedder, generator domain.Generator, template *prompt.Template, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		template:  template,
		topK:      topK,
	}
}

// Answer retrieves the top-K chunks for the question and asks the generator
// for an answer grounded in them. ErrIndexNotFound propagates as a
// precondition failure ("process your documents first"); collaborator
// failures come back as QueryError with the cause attached.
func (e *Engine) Answer(ctx context.Context, question string, k int) (domain.Answer, error) {
	if k <= 0 {
		k = e.topK
	}

	manifest, err := e.store.Load(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	if manifest.Embedder != e.embedder.Name() {
		return domain.Answer{}, fmt.Errorf("%w: index built with %q, configured embedder is %q",
			domain.ErrEmbeddingMismatch, manifest.Embedder, e.embedder.Name())
	}

	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, &domain.QueryError{Stage: "embed", Err: err}
	}
	if len(vector) != manifest.Dimension {
		return domain.Answer{}, fmt.Errorf("%w: question embeds to dimension %d, index dimension is %d",
			domain.ErrEmbeddingMismatch, len(vector), manifest.Dimension)
	}

	results, err := e.store.Search(ctx, vector, k)
	if err != nil {
		return domain.Answer{}, &domain.QueryError{Stage: "search", Err: err}
	}

	contextBlock := prompt.BuildContext(results)
	rendered := e.template.Render(contextBlock, question)

	text, err := e.generator.Generate(ctx, rendered)
	if err != nil {
		return domain.Answer{}, &domain.QueryError{Stage: "generate", Err: err}
	}
	return domain.Answer{Text: text, Sources: results}, nil
}
