package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

func testChunks() ([]domain.Chunk, [][]float32) {
	chunks := []domain.Chunk{
		{ID: "a:0", DocumentName: "a", Seq: 0, Text: "blood pressure elevated"},
		{ID: "a:1", DocumentName: "a", Seq: 1, Text: "prescribed lisinopril"},
		{ID: "b:0", DocumentName: "b", Seq: 0, Text: "cholesterol normal"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return chunks, vectors
}

func manifestFor(vectors [][]float32) domain.Manifest {
	return domain.Manifest{Embedder: "tfidf", Dimension: len(vectors[0]), CreatedAt: time.Now().UTC()}
}

func TestBuildEmptyCorpus(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	err := s.Build(context.Background(), domain.Manifest{Dimension: 3}, nil, nil)
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestLoadMissingIndex(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchBeforeLoad(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	if _, err := s.Search(context.Background(), []float32{1, 0, 0}, 2); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchInvalidTopK(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	chunks, vectors := testChunks()
	if err := s.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Search(ctx, []float32{1, 0, 0}, 0); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.jsonl")
	chunks, vectors := testChunks()

	built := New(path)
	if err := built.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	query := []float32{0.9, 0.1, 0}
	want, err := built.Search(ctx, query, 3)
	if err != nil {
		t.Fatal(err)
	}

	loaded := New(path)
	manifest, err := loaded.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Chunks != len(chunks) || manifest.Dimension != 3 || manifest.Embedder != "tfidf" {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	got, err := loaded.Search(ctx, query, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("result count differs: %d != %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Chunk.ID != want[i].Chunk.ID || got[i].Score != want[i].Score {
			t.Fatalf("result %d differs: %+v != %+v", i, got[i], want[i])
		}
	}
}

func TestSearchTopKLargerThanCorpus(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	chunks, vectors := testChunks()
	if err := s.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, []float32{0, 1, 0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(chunks) {
		t.Fatalf("expected all %d chunks, got %d", len(chunks), len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Chunk.ID] {
			t.Fatalf("duplicate chunk %s in results", r.Chunk.ID)
		}
		seen[r.Chunk.ID] = true
	}
	if results[0].Chunk.ID != "a:1" {
		t.Fatalf("expected most relevant chunk first, got %s", results[0].Chunk.ID)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	chunks := []domain.Chunk{
		{ID: "first", Seq: 0, Text: "x"},
		{ID: "second", Seq: 1, Text: "y"},
		{ID: "third", Seq: 2, Text: "z"},
	}
	// Identical vectors score identically against any query.
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	if err := s.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"first", "second", "third"} {
		if results[i].Chunk.ID != id {
			t.Fatalf("tie order broken at %d: got %s", i, results[i].Chunk.ID)
		}
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "index.jsonl"))
	chunks, vectors := testChunks()
	if err := s.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Search(ctx, []float32{1, 0}, 2); !errors.Is(err, domain.ErrEmbeddingMismatch) {
		t.Fatalf("expected ErrEmbeddingMismatch, got %v", err)
	}
}

func TestLoadCorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	if err := os.WriteFile(path, []byte("not json at all\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(context.Background()); !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestLoadDimensionInconsistentEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	content := `{"embedder":"tfidf","dimension":3,"chunks":1,"created_at":"2026-01-01T00:00:00Z"}
{"id":"a:0","doc":"a","seq":0,"text":"x","embedding":[1,0]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(context.Background()); !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestFailedBuildLeavesPriorIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.jsonl")
	chunks, vectors := testChunks()

	s := New(path)
	if err := s.Build(ctx, manifestFor(vectors), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	// A build with no chunks must fail without touching the file.
	if err := New(path).Build(ctx, manifestFor(vectors), nil, nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := New(path).Load(ctx); err != nil {
		t.Fatalf("prior index should still load: %v", err)
	}
}
