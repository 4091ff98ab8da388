// Package extract turns uploaded report files into raw text. Extraction
// failures are per-document: the registry reports them to the caller, which
// decides whether to continue with the rest of the batch.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

// Registry dispatches to an extractor based on the file extension.
type Registry struct {
	byExt map[string]domain.Extractor
}

// NewRegistry returns a registry covering the supported report formats.
func NewRegistry() *Registry {
	plain := &Plain{}
	return &Registry{byExt: map[string]domain.Extractor{
		".pdf":  &PDF{},
		".txt":  plain,
		".text": plain,
		".md":   plain,
	}}
}

// Extract picks the extractor for path and runs it. Unsupported extensions
// are an error for that document only.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ex, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("unsupported document format %q", ext)
	}
	return ex.Extract(ctx, path)
}
