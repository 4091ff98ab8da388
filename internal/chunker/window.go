package chunker

import (
	"fmt"
	"strconv"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

// WindowChunker slides a fixed-size character window across the text,
// advancing by maxSize-overlap each step so consecutive chunks share overlap
// characters. No sentence or paragraph awareness; the window is measured in
// runes so multi-byte text never splits mid-character.
type WindowChunker struct {
	maxSize int
	overlap int
}

// NewWindowChunker validates the window parameters. maxSize must be positive
// and overlap must satisfy 0 <= overlap < maxSize.
func NewWindowChunker(maxSize, overlap int) (*WindowChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk max size must be positive, got %d", domain.ErrInvalidConfig, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", domain.ErrInvalidConfig, maxSize, overlap)
	}
	return &WindowChunker{maxSize: maxSize, overlap: overlap}, nil
}

// Split returns the window passes over text. Empty input yields no chunks;
// the final chunk may be shorter than maxSize.
func (c *WindowChunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.maxSize - c.overlap
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// Chunk splits one document and assigns sequential chunk IDs.
func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	pieces := c.Split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:           doc.Name + ":" + strconv.Itoa(i),
			DocumentName: doc.Name,
			Seq:          i,
			Text:         text,
		})
	}
	return chunks, nil
}
