package domain

import (
	"context"
	"time"
)

// Document is a single medical report after text extraction. It exists only
// for the duration of an ingestion run.
type Document struct {
	Name string
	Text string
}

// Chunk is a bounded piece of a document's text, the atomic unit of embedding
// and retrieval. DocumentName is a non-owning back-reference used for citation
// display.
type Chunk struct {
	ID           string
	DocumentName string
	Seq          int
	Text         string
}

// SearchResult is a retrieved chunk with its similarity score.
// Higher score means more relevant.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Answer is the generated answer text plus the retrieved chunks it was
// grounded on. Text is returned verbatim from the generation model.
type Answer struct {
	Text    string
	Sources []SearchResult
}

// Manifest describes a persisted index: which embedder produced it, the
// vector dimensionality, and how many chunks it holds. An index is only valid
// to query with the embedder named here.
type Manifest struct {
	Embedder  string    `json:"embedder"`
	Dimension int       `json:"dimension"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// Extractor turns one document file into raw text. A failure affects only
// that document, never the whole batch.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits a document into chunks suitable for embedding.
type Chunker interface {
	Chunk(doc Document) ([]Chunk, error)
}

// Embedder converts text into a fixed-dimensionality vector. The same
// embedder must be used for indexing and for querying. Implementations may
// require a preparation phase over the corpus before embedding.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store holds chunk vectors plus their text, persists them as a unit, and
// answers nearest-neighbor queries. Build replaces any prior index
// atomically; a concurrent reader never observes a partial write.
type Store interface {
	Build(ctx context.Context, manifest Manifest, chunks []Chunk, vectors [][]float32) error
	Load(ctx context.Context) (Manifest, error)
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
