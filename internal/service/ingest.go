package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

// DocumentError records one document that was excluded from the corpus.
type DocumentError struct {
	Name string
	Err  error
}

// Report is the outcome of one ingestion run. Skipped documents are a normal
// partial-failure outcome, distinct from a failed run.
type Report struct {
	Documents int
	Chunks    int
	Dimension int
	Skipped   []DocumentError
	Summary   string
}

// Pipeline rebuilds the vector index from a batch of uploaded reports. Every
// run starts from scratch: extract, chunk, embed, then atomically replace the
// persisted index.
type Pipeline struct {
	extractor  domain.Extractor
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.Store
	summarizer domain.Summarizer

	summaryMaxSentences int
}

// NewPipeline wires the ingestion collaborators. summarizer may be nil to
// skip the corpus overview.
func NewPipeline(extractor domain.Extractor, chunker domain.Chunker, embedder domain.Embedder, store domain.Store, summarizer domain.Summarizer, summaryMaxSentences int) *Pipeline {
	return &Pipeline{
		extractor:           extractor,
		chunker:             chunker,
		embedder:            embedder,
		store:               store,
		summarizer:          summarizer,
		summaryMaxSentences: summaryMaxSentences,
	}
}

// Ingest processes the batch. A single document's extraction failure is
// recorded and skipped; the pipeline continues with the rest. Embedding and
// persistence are all-or-nothing: on any failure there, nothing is written
// and a previously persisted index stays intact.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}

	var documents []domain.Document
	for _, path := range paths {
		name := filepath.Base(path)
		text, err := p.extractor.Extract(ctx, path)
		if err != nil {
			log.Printf("skipping %s: %v", name, err)
			report.Skipped = append(report.Skipped, DocumentError{Name: name, Err: err})
			continue
		}
		documents = append(documents, domain.Document{Name: name, Text: text})
	}
	report.Documents = len(documents)

	var chunks []domain.Chunk
	var texts []string
	var corpus strings.Builder
	for _, doc := range documents {
		docChunks, err := p.chunker.Chunk(doc)
		if err != nil {
			return report, &domain.IngestionError{Stage: "chunk", Err: err}
		}
		for _, ch := range docChunks {
			chunks = append(chunks, ch)
			texts = append(texts, ch.Text)
		}
		corpus.WriteString(doc.Text)
		corpus.WriteString("\n")
	}
	if len(chunks) == 0 {
		return report, domain.ErrEmptyCorpus
	}
	report.Chunks = len(chunks)

	if err := p.embedder.Prepare(texts); err != nil {
		return report, &domain.IngestionError{Stage: "embed", Err: err}
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return report, &domain.IngestionError{Stage: "embed", Err: err}
	}
	report.Dimension = len(vectors[0])

	manifest := domain.Manifest{
		Embedder:  p.embedder.Name(),
		Dimension: report.Dimension,
		Chunks:    len(chunks),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.Build(ctx, manifest, chunks, vectors); err != nil {
		return report, &domain.IngestionError{Stage: "persist", Err: err}
	}
	// Embedder model state is written only once the index is in place, so a
	// failed run never leaves new state paired with an old index.
	if saver, ok := p.embedder.(interface{ SaveState() error }); ok {
		if err := saver.SaveState(); err != nil {
			return report, &domain.IngestionError{Stage: "persist", Err: fmt.Errorf("save embedder state: %w", err)}
		}
	}

	if p.summarizer != nil {
		summary, err := p.summarizer.Summarize(corpus.String(), p.summaryMaxSentences)
		if err != nil {
			log.Printf("corpus summary failed: %v", err)
		} else {
			report.Summary = summary
		}
	}
	return report, nil
}
