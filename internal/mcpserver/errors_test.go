package mcpserver

import (
	"testing"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

func TestMapErrorDispatchesByKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"repo not found", kdexerr.New(kdexerr.RepoNotFound, "no such repo"), ErrCodeRepoNotFound},
		{"store busy", kdexerr.New(kdexerr.StoreBusy, "locked"), ErrCodeStoreBusy},
		{"mode unavailable", kdexerr.New(kdexerr.ModeUnavailable, "no embeddings"), ErrCodeModeUnavailable},
		{"empty query", kdexerr.New(kdexerr.EmptyQuery, "empty"), ErrCodeInvalidParams},
		{"unmapped kind falls back to internal", kdexerr.New(kdexerr.Internal, "boom"), ErrCodeInternalError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MapError(c.err)
			if got.Code != c.code {
				t.Errorf("Code = %d, want %d", got.Code, c.code)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if MapError(nil) != nil {
		t.Error("MapError(nil) should be nil")
	}
}
