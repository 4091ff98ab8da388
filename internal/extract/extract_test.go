package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("Patient is stable."), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := NewRegistry().Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Patient is stable." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestRegistryUnsupportedExtension(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), "scan.png")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestRegistryMissingFile(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
