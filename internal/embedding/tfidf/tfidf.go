// Package tfidf is the offline default embedder: a TF-IDF vectorizer whose
// vocabulary is built from the corpus during ingestion. Because the index is
// only valid with the embedder that built it, the fitted model state is
// persisted next to the index and reloaded before querying.
package tfidf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/textutil"
)

// Embedder computes L2-normalized TF-IDF vectors over a fitted vocabulary.
type Embedder struct {
	vocabulary map[string]int
	idf        []float32
	dimension  int
	prepared   bool
	stopwords  map[string]struct{}
	statePath  string
}

// state is the serialized form of a fitted model.
type state struct {
	Terms []string  `json:"terms"`
	IDF   []float32 `json:"idf"`
}

// NewEmbedder creates an unfitted embedder. If statePath is non-empty,
// SaveState writes the fitted model there and LoadState restores it.
func NewEmbedder(statePath string) *Embedder {
	return &Embedder{
		vocabulary: make(map[string]int),
		stopwords:  textutil.Stopwords(),
		statePath:  statePath,
	}
}

func (e *Embedder) Name() string { return "tfidf" }

// Dimension is the vocabulary size; zero until fitted.
func (e *Embedder) Dimension() int { return e.dimension }

// Prepare fits the vocabulary and smoothed IDF values from the corpus. The
// fitted model lives in memory only; nothing touches disk until SaveState, so
// an ingestion run that fails later leaves any prior persisted model intact.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tf-idf fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokens(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	sort.Strings(terms)

	idf := make([]float32, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1.0)
	}
	e.fit(terms, idf)
	return nil
}

// LoadState restores a previously fitted model from the state path.
func (e *Embedder) LoadState() error {
	data, err := os.ReadFile(e.statePath)
	if err != nil {
		return fmt.Errorf("read tf-idf state: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse tf-idf state: %w", err)
	}
	if len(st.Terms) == 0 || len(st.Terms) != len(st.IDF) {
		return errors.New("tf-idf state is inconsistent")
	}
	e.fit(st.Terms, st.IDF)
	return nil
}

func (e *Embedder) fit(terms []string, idf []float32) {
	e.vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		e.vocabulary[term] = i
	}
	e.idf = idf
	e.dimension = len(terms)
	e.prepared = true
}

// SaveState atomically persists the fitted model to the state path. A no-op
// without a state path; an error before Prepare.
func (e *Embedder) SaveState() error {
	if e.statePath == "" {
		return nil
	}
	if !e.prepared {
		return errors.New("tf-idf embedder not fitted")
	}
	terms := make([]string, e.dimension)
	for term, i := range e.vocabulary {
		terms[i] = term
	}
	data, err := json.Marshal(state{Terms: terms, IDF: e.idf})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(e.statePath), ".tfidf-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), e.statePath)
}

// Embed computes the TF-IDF vector for text. Unknown tokens contribute
// nothing; a text with no known tokens embeds to the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.prepared {
		return nil, errors.New("tf-idf embedder not fitted; run ingestion first")
	}
	vec := make([]float32, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokens(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float32(count) / float32(total) * e.idf[idx]
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) tokens(text string) []string {
	raw := textutil.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
