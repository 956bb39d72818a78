package embedder

import (
	"strings"
	"testing"
)

func TestSplitCoversWholeText(t *testing.T) {
	text := strings.Repeat("word ", 5000)
	chunks := Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	if chunks[0].Start != 0 {
		t.Errorf("first chunk Start = %d, want 0", chunks[0].Start)
	}
	if chunks[len(chunks)-1].End != len(text) {
		t.Errorf("last chunk End = %d, want %d", chunks[len(chunks)-1].End, len(text))
	}
	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("chunk %d has Ordinal %d", i, c.Ordinal)
		}
		if c.Text != text[c.Start:c.End] {
			t.Errorf("chunk %d text does not match its byte range", i)
		}
	}
}

func TestSplitOverlapsConsecutiveChunks(t *testing.T) {
	text := strings.Repeat("word ", 5000)
	chunks := Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Errorf("chunk %d starts at %d, not before previous chunk's end %d (no overlap)", i, chunks[i].Start, chunks[i-1].End)
		}
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("a short file")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short file" {
		t.Errorf("Text = %q", chunks[0].Text)
	}
}

func TestSplitEmptyText(t *testing.T) {
	if chunks := Split(""); chunks != nil {
		t.Errorf("expected nil chunks for empty text, got %v", chunks)
	}
}
