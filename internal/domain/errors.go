package domain

import "errors"

// Failure taxonomy shared across the pipeline and the query engine. Callers
// match with errors.Is; collaborator failures are wrapped into IngestionError
// or QueryError with the underlying cause attached.
var (
	// ErrInvalidConfig marks bad chunk, overlap, or top-k values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyCorpus means no usable text was produced across all documents.
	ErrEmptyCorpus = errors.New("no usable text to index")

	// ErrIndexNotFound means no index has ever been persisted at the
	// configured location.
	ErrIndexNotFound = errors.New("no index found; process your documents first")

	// ErrCorruptIndex means the persisted index is unreadable or internally
	// inconsistent.
	ErrCorruptIndex = errors.New("stored index is corrupt")

	// ErrEmbeddingMismatch means the index was built with a different
	// embedder than the one configured for querying.
	ErrEmbeddingMismatch = errors.New("index was built with a different embedder")
)

// IngestionError wraps a collaborator failure during ingestion. Nothing is
// persisted when one is returned.
type IngestionError struct {
	Stage string
	Err   error
}

func (e *IngestionError) Error() string {
	return "ingestion failed during " + e.Stage + ": " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error { return e.Err }

// QueryError wraps a collaborator failure during answering. It is not
// retried; callers may layer their own retry policy.
type QueryError struct {
	Stage string
	Err   error
}

func (e *QueryError) Error() string {
	return "query failed during " + e.Stage + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }
