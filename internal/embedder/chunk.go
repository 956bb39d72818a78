package embedder

import "strings"

// ChunkWindow is the target chunk size in tokens, and ChunkOverlap the
// overlap between consecutive chunks, per spec.md §3 ("each chunk ≤ ~512
// tokens with ~50-token overlap").
const (
	ChunkWindow  = 512
	ChunkOverlap = 50
)

// Chunk is one windowed slice of a file's normalized text.
type Chunk struct {
	Ordinal int
	Start   int // byte offset, inclusive
	End     int // byte offset, exclusive
	Text    string
}

// approxTokenBytes estimates how many bytes correspond to one token. This
// is a coarse heuristic (no tokenizer dependency), calibrated so that
// english prose and typical source code both land near 4 bytes/token.
const approxTokenBytes = 4

// Split windows normalized into chunks of ~ChunkWindow tokens with
// ~ChunkOverlap-token overlap between consecutive chunks. Each chunk's end
// is moved forward to the next whitespace where possible so it does not
// sever a word; chunk starts fall on a fixed byte stride and can begin
// mid-word.
func Split(normalized string) []Chunk {
	if normalized == "" {
		return nil
	}

	windowBytes := ChunkWindow * approxTokenBytes
	overlapBytes := ChunkOverlap * approxTokenBytes
	stride := windowBytes - overlapBytes
	if stride <= 0 {
		stride = windowBytes
	}

	var chunks []Chunk
	n := len(normalized)
	ordinal := 0
	for start := 0; start < n; start += stride {
		end := start + windowBytes
		if end > n {
			end = n
		}
		end = extendToWordBoundary(normalized, end)
		if end <= start {
			end = n
		}
		chunks = append(chunks, Chunk{
			Ordinal: ordinal,
			Start:   start,
			End:     end,
			Text:    normalized[start:end],
		})
		ordinal++
		if end >= n {
			break
		}
	}
	return chunks
}

// extendToWordBoundary nudges end forward to the next whitespace rune (or
// end of string), so a chunk's end does not split a token mid-word.
func extendToWordBoundary(s string, end int) int {
	if end >= len(s) {
		return len(s)
	}
	rest := s[end:]
	if idx := strings.IndexAny(rest, " \t\n"); idx >= 0 {
		return end + idx
	}
	return len(s)
}
