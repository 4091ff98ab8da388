// Package file is the default vector store: an exact brute-force cosine
// index persisted as a single file. The first line is the manifest JSON and
// every following line is one chunk entry with its embedding. The file is
// written to a temp path in the same directory and renamed into place, so a
// concurrent reader sees either the old index or the new one, never a mix.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

// entry is one persisted chunk record.
type entry struct {
	ID        string    `json:"id"`
	Doc       string    `json:"doc"`
	Seq       int       `json:"seq"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Store keeps the index in memory and mirrors it to disk as a unit.
type Store struct {
	path string

	mu       sync.RWMutex
	manifest domain.Manifest
	chunks   []domain.Chunk
	vectors  [][]float32
	ready    bool
}

// New creates a store persisting to path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path}
}

// Build replaces the index with the given chunks and vectors and persists it
// atomically. An empty chunk set fails with ErrEmptyCorpus and leaves any
// previously persisted index untouched.
func (s *Store) Build(ctx context.Context, manifest domain.Manifest, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyCorpus
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != manifest.Dimension {
			return fmt.Errorf("vector %d has dimension %d, manifest says %d", i, len(vec), manifest.Dimension)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	manifest.Chunks = len(chunks)
	if err := s.persist(manifest, chunks, vectors); err != nil {
		return err
	}
	s.mu.Lock()
	s.manifest = manifest
	s.chunks = chunks
	s.vectors = vectors
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(manifest domain.Manifest, chunks []domain.Chunk, vectors [][]float32) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	for i, ch := range chunks {
		e := entry{ID: ch.ID, Doc: ch.DocumentName, Seq: ch.Seq, Text: ch.Text, Embedding: vectors[i]}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write index entry %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("swap index into place: %w", err)
	}
	return nil
}

// Load reads the persisted index into memory. A missing file is
// ErrIndexNotFound; unreadable or dimensionally inconsistent data is
// ErrCorruptIndex.
func (s *Store) Load(ctx context.Context) (domain.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return domain.Manifest{}, err
	}
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return domain.Manifest{}, domain.ErrIndexNotFound
	}
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	if !scanner.Scan() {
		return domain.Manifest{}, fmt.Errorf("%w: missing manifest line", domain.ErrCorruptIndex)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(scanner.Bytes(), &manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: bad manifest: %v", domain.ErrCorruptIndex, err)
	}
	if manifest.Dimension <= 0 {
		return domain.Manifest{}, fmt.Errorf("%w: manifest dimension %d", domain.ErrCorruptIndex, manifest.Dimension)
	}

	var chunks []domain.Chunk
	var vectors [][]float32
	line := 1
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return domain.Manifest{}, fmt.Errorf("%w: bad entry on line %d: %v", domain.ErrCorruptIndex, line, err)
		}
		if len(e.Embedding) != manifest.Dimension {
			return domain.Manifest{}, fmt.Errorf("%w: entry on line %d has dimension %d, manifest says %d",
				domain.ErrCorruptIndex, line, len(e.Embedding), manifest.Dimension)
		}
		chunks = append(chunks, domain.Chunk{ID: e.ID, DocumentName: e.Doc, Seq: e.Seq, Text: e.Text})
		vectors = append(vectors, e.Embedding)
	}
	if err := scanner.Err(); err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	if len(chunks) == 0 || len(chunks) != manifest.Chunks {
		return domain.Manifest{}, fmt.Errorf("%w: manifest says %d chunks, file holds %d",
			domain.ErrCorruptIndex, manifest.Chunks, len(chunks))
	}

	s.mu.Lock()
	s.manifest = manifest
	s.chunks = chunks
	s.vectors = vectors
	s.ready = true
	s.mu.Unlock()
	return manifest, nil
}

// Search returns the topK chunks by cosine similarity, most relevant first.
// Ties keep insertion order. topK larger than the corpus returns everything.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidConfig, topK)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, domain.ErrIndexNotFound
	}
	if len(vector) != s.manifest.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrEmbeddingMismatch, len(vector), s.manifest.Dimension)
	}

	qNorm := norm(vector)
	type scored struct {
		idx   int
		score float32
	}
	all := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		all[i] = scored{idx: i, score: cosine(vector, vec, qNorm)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].score > all[b].score })

	if topK > len(all) {
		topK = len(all)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, sc := range all[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[sc.idx], Score: sc.score})
	}
	return results, nil
}

func cosine(a, b []float32, normA float64) float32 {
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (normA * normB))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
