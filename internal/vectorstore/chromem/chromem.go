// Package chromem backs the vector store with an embedded chromem-go
// database. It is an alternative to the default file store for anyone who
// wants a real embedded vector DB at the index location; the search contract
// is the same, though tie ordering follows chromem's own ranking. The
// manifest rides inside the exported database, so the whole index is one
// artifact swapped into place with a single rename.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

const (
	chunkCollection    = "reports"
	manifestCollection = "manifest"
	manifestID         = "manifest"
)

// manifestVector is the dummy embedding carried by the manifest document so
// chromem never calls an embedding function for it.
var manifestVector = []float32{1}

// Store persists one chromem database holding the chunk collection and the
// manifest.
type Store struct {
	path string

	db   *chromem.DB
	coll *chromem.Collection
}

// New creates a store persisting under dir.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, "index.chromem")}
}

// Build replaces the database with the given chunks and their precomputed
// embeddings plus the manifest, then exports everything to disk at once.
func (s *Store) Build(ctx context.Context, manifest domain.Manifest, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyCorpus
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	manifest.Chunks = len(chunks)

	db := chromem.NewDB()
	coll, err := db.CreateCollection(chunkCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"doc": ch.DocumentName,
				"seq": strconv.Itoa(ch.Seq),
			},
		}
	}
	if err := coll.AddDocuments(ctx, docs, 4); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	mcoll, err := db.CreateCollection(manifestCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("create manifest collection: %w", err)
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	err = mcoll.AddDocuments(ctx, []chromem.Document{{
		ID:        manifestID,
		Content:   string(data),
		Embedding: manifestVector,
	}}, 1)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := db.ExportToFile(tmp, true, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap database into place: %w", err)
	}
	s.db = db
	s.coll = coll
	return nil
}

// Load imports the persisted database and reads the manifest out of it.
func (s *Store) Load(ctx context.Context) (domain.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return domain.Manifest{}, err
	}
	db := chromem.NewDB()
	if err := db.ImportFromFile(s.path, ""); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Manifest{}, domain.ErrIndexNotFound
		}
		return domain.Manifest{}, fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	mcoll := db.GetCollection(manifestCollection, nil)
	if mcoll == nil || mcoll.Count() == 0 {
		return domain.Manifest{}, fmt.Errorf("%w: manifest missing from database", domain.ErrCorruptIndex)
	}
	res, err := mcoll.QueryEmbedding(ctx, manifestVector, 1, nil, nil)
	if err != nil || len(res) == 0 {
		return domain.Manifest{}, fmt.Errorf("%w: manifest unreadable: %v", domain.ErrCorruptIndex, err)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal([]byte(res[0].Content), &manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: bad manifest: %v", domain.ErrCorruptIndex, err)
	}

	coll := db.GetCollection(chunkCollection, nil)
	if coll == nil {
		return domain.Manifest{}, fmt.Errorf("%w: collection %q missing", domain.ErrCorruptIndex, chunkCollection)
	}
	if coll.Count() != manifest.Chunks {
		return domain.Manifest{}, fmt.Errorf("%w: manifest says %d chunks, collection holds %d",
			domain.ErrCorruptIndex, manifest.Chunks, coll.Count())
	}
	s.db = db
	s.coll = coll
	return manifest, nil
}

// Search queries the chunk collection by embedding.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidConfig, topK)
	}
	if s.coll == nil {
		return nil, domain.ErrIndexNotFound
	}
	if topK > s.coll.Count() {
		topK = s.coll.Count()
	}
	results, err := s.coll.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		seq, _ := strconv.Atoi(r.Metadata["seq"])
		out = append(out, domain.SearchResult{
			Chunk: domain.Chunk{
				ID:           r.ID,
				DocumentName: r.Metadata["doc"],
				Seq:          seq,
				Text:         r.Content,
			},
			Score: r.Similarity,
		})
	}
	return out, nil
}
