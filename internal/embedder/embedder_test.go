package embedder

import (
	"context"
	"math"
	"testing"
)

func newTestEmbedder() *Embedder {
	return &Embedder{modelName: "test-model", dims: Dimensions}
}

func TestEmbedQueryDeterministic(t *testing.T) {
	e := newTestEmbedder()
	ctx := context.Background()

	v1, err := e.EmbedQuery(ctx, "fn authenticate(user)")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := e.EmbedQuery(ctx, "fn authenticate(user)")
	if err != nil {
		t.Fatal(err)
	}
	if len(v1) != Dimensions {
		t.Fatalf("len = %d, want %d", len(v1), Dimensions)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("embedding not deterministic at index %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestEmbedQueryIsNormalized(t *testing.T) {
	e := newTestEmbedder()
	v, err := e.EmbedQuery(context.Background(), "widget factory registry pattern")
	if err != nil {
		t.Fatal(err)
	}
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sumSquares)-1.0) > 1e-4 {
		t.Errorf("||v|| = %f, want ~1.0", math.Sqrt(sumSquares))
	}
}

func TestEmbedQueryEmptyTextIsZeroVector(t *testing.T) {
	e := newTestEmbedder()
	v, err := e.EmbedQuery(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("index %d = %f, want 0 for empty input", i, x)
		}
	}
}

func TestEmbedBatchMatchesEmbedQueryPerItem(t *testing.T) {
	e := newTestEmbedder()
	ctx := context.Background()
	texts := []string{"alpha beta", "gamma delta"}

	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("len(batch) = %d, want %d", len(batch), len(texts))
	}
	for i, text := range texts {
		single, err := e.EmbedQuery(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("batch[%d] diverges from EmbedQuery at index %d", i, j)
			}
		}
	}
}
