package kdexerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFormatting(t *testing.T) {
	e := New(RepoNotFound, "no repository matches foo")
	assert.Equal(t, "RepoNotFound: no repository matches foo", e.Error())

	e = e.WithPath("/tmp/foo")
	assert.Equal(t, "RepoNotFound: no repository matches foo (/tmp/foo)", e.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(Internal, "write batch", cause)
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestIsMatchesOnKindOnly(t *testing.T) {
	a := New(StoreBusy, "writer contention")
	b := New(StoreBusy, "a different message")
	c := New(RepoNotFound, "writer contention")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := New(FetchDiverged, "cannot fast-forward")
	wrapped := fmt.Errorf("sync failed: %w", base)

	assert.Equal(t, FetchDiverged, KindOf(wrapped))
	assert.Equal(t, Internal, KindOf(errors.New("plain error")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, New(StoreBusy, "").Retryable())
	assert.False(t, New(RepoNotFound, "").Retryable())
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{EmptyQuery, 2},
		{RegexTooLarge, 2},
		{NotADirectory, 2},
		{PathNotFound, 2},
		{RepoNotFound, 1},
		{StoreBusy, 1},
		{Internal, 1},
	}
	for _, c := range cases {
		got := ExitCode(New(c.kind, "x"))
		assert.Equalf(t, c.want, got, "kind %s", c.kind)
	}
	assert.Equal(t, 0, ExitCode(nil))
}

func TestWithSuggestionChains(t *testing.T) {
	e := New(RepoNotFound, "x").WithSuggestion("run kdex add").WithPath("/a/b")
	require.Equal(t, "run kdex add", e.Suggestion)
	require.Equal(t, "/a/b", e.Path)
}
