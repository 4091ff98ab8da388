package summarizer

import (
	"strings"
	"testing"
)

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "Hypertension noted on admission. Hypertension treated with Lisinopril. Hypertension follow-up in two weeks. Unrelated aside here."
	s := NewFrequencySummarizer()
	out, err := s.Summarize(text, 2)
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Fatal("expected non-empty summary")
	}
	// Selected sentences must appear in document order.
	first := strings.Index(out, "Hypertension")
	if first == -1 {
		t.Fatalf("summary lost the dominant topic: %q", out)
	}
}

func TestSummarizeEmptyText(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("", 3)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Fatalf("expected empty summary, got %q", out)
	}
}

func TestSummarizeFewerSentencesThanRequested(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("Only one sentence here.", 5)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Only one sentence here." {
		t.Fatalf("unexpected summary: %q", out)
	}
}
