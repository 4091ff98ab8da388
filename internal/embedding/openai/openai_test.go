package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEmbedder(t *testing.T, concurrency int) *Embedder {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"object": "list",
			"model":  "test-embedding",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{3, 4}},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Error(err)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "test-key")
	e, err := NewEmbedder(Config{
		BaseURL:     srv.URL,
		APIKeyEnv:   "TEST_EMBED_KEY",
		Model:       "test-embedding",
		Concurrency: concurrency,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEmbedNormalizesAndSetsDimension(t *testing.T) {
	e := newTestEmbedder(t, 1)
	vec, err := e.Embed(context.Background(), "blood pressure elevated")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 {
		t.Fatalf("expected 2-dimensional vector, got %d", len(vec))
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Fatalf("expected unit-norm vector, got norm %f", math.Sqrt(norm))
	}
	if e.Dimension() != 2 {
		t.Fatalf("expected dimension 2, got %d", e.Dimension())
	}
}

func TestEmbedBatchConcurrentPreservesOrder(t *testing.T) {
	e := newTestEmbedder(t, 8)
	texts := make([]string, 32)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	for i, vec := range vecs {
		if len(vec) != 2 {
			t.Fatalf("vector %d has %d elements", i, len(vec))
		}
	}
	if e.Dimension() != 2 {
		t.Fatalf("expected dimension 2 after batch, got %d", e.Dimension())
	}
}

func TestNewEmbedderMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	if _, err := NewEmbedder(Config{APIKeyEnv: "TEST_EMBED_KEY"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
