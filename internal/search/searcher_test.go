package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBM25(t *testing.T) {
	assert.Equal(t, 0.0, normalizeBM25(0))
	assert.InDelta(t, 0.5, normalizeBM25(-1), 1e-9)
	// a positive rank (shouldn't happen from sqlite, but guard it) is
	// clamped to the no-match case rather than producing a score > 1.
	assert.Equal(t, 0.0, normalizeBM25(5))
}

func TestLimitOfDefaultsTo20(t *testing.T) {
	assert.Equal(t, 20, limitOf(Options{}))
	assert.Equal(t, 5, limitOf(Options{Limit: 5}))
}

func TestPaginate(t *testing.T) {
	results := []Result{{FileID: 1}, {FileID: 2}, {FileID: 3}, {FileID: 4}}

	page := paginate(results, Options{Limit: 2, Offset: 1})
	assert.Equal(t, []Result{{FileID: 2}, {FileID: 3}}, page)

	assert.Empty(t, paginate(results, Options{Limit: 2, Offset: 10}))
}

func TestSearchUnknownModeErrors(t *testing.T) {
	s := New(nil, nil)
	_, err := s.Search(nil, "x", Options{Mode: Mode("bogus")}) //nolint:staticcheck // nil ctx ok, unknown-mode branch returns before any ctx use
	assert.Error(t, err)
}
