package extract

import (
	"context"
	"fmt"
	"os"
)

// Plain reads a text file as-is.
type Plain struct{}

func (p *Plain) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
