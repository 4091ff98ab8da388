package chromem

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

func TestLoadMissingIndex(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	s := New(t.TempDir())
	err := s.Build(context.Background(), domain.Manifest{Dimension: 3}, nil, nil)
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestBuildLoadSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	chunks := []domain.Chunk{
		{ID: "r:0", DocumentName: "report.pdf", Seq: 0, Text: "prescribed lisinopril"},
		{ID: "r:1", DocumentName: "report.pdf", Seq: 1, Text: "cholesterol normal"},
	}
	vectors := [][]float32{{1, 0}, {0, 1}}
	manifest := domain.Manifest{Embedder: "tfidf", Dimension: 2, CreatedAt: time.Now().UTC()}

	if err := New(dir).Build(ctx, manifest, chunks, vectors); err != nil {
		t.Fatal(err)
	}

	s := New(dir)
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Chunks != 2 || loaded.Embedder != "tfidf" {
		t.Fatalf("unexpected manifest: %+v", loaded)
	}
	results, err := s.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "r:0" {
		t.Fatalf("expected r:0 first, got %s", results[0].Chunk.ID)
	}
	if results[0].Chunk.DocumentName != "report.pdf" || results[0].Chunk.Seq != 0 {
		t.Fatalf("chunk metadata lost: %+v", results[0].Chunk)
	}
}

func TestBuildWritesSingleArtifact(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	chunks := []domain.Chunk{
		{ID: "r:0", DocumentName: "report.pdf", Seq: 0, Text: "prescribed lisinopril"},
	}
	vectors := [][]float32{{1, 0}}
	manifest := domain.Manifest{Embedder: "tfidf", Dimension: 2, CreatedAt: time.Now().UTC()}

	if err := New(dir).Build(ctx, manifest, chunks, vectors); err != nil {
		t.Fatal(err)
	}
	// Chunks and manifest are replaced together; a reader never sees one
	// without the other.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.chromem" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected a single index artifact, got %v", names)
	}
}
