package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

func TestNewRejectsMissingPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"no context", "Question: {question}\n" + Sentinel},
		{"no question", "Context: {context}\n" + Sentinel},
		{"no sentinel", "Context: {context}\nQuestion: {question}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.text); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDefaultTemplateIsValid(t *testing.T) {
	tmpl := MustDefault()
	out := tmpl.Render("CONTEXT BLOCK", "What medication is prescribed?")
	if !strings.Contains(out, "CONTEXT BLOCK") {
		t.Fatal("rendered prompt missing context")
	}
	if !strings.Contains(out, "What medication is prescribed?") {
		t.Fatal("rendered prompt missing question")
	}
	if !strings.Contains(out, Sentinel) {
		t.Fatal("rendered prompt missing sentinel instruction")
	}
	if strings.Contains(out, "{context}") || strings.Contains(out, "{question}") {
		t.Fatal("placeholders left unsubstituted")
	}
}

func TestBuildContextOrderAndDelimiter(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "first passage"}},
		{Chunk: domain.Chunk{Text: "  second passage  "}},
		{Chunk: domain.Chunk{Text: ""}},
		{Chunk: domain.Chunk{Text: "third passage"}},
	}
	got := BuildContext(results)
	want := "first passage" + ContextDelimiter + "second passage" + ContextDelimiter + "third passage"
	if got != want {
		t.Fatalf("context block mismatch:\nwant %q\ngot  %q", want, got)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}
