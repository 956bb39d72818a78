package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/scanner"
)

// TestHashOnlyHonorsConfiguredSizeCap covers a Suspect candidate between the
// configured max_file_size_mb and a hardcoded fallback: hashOnly must size-
// reject it using cfg.MaxFileSizeMB rather than reading it anyway.
func TestHashOnlyHonorsConfiguredSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	// 2MB, larger than a 1MB configured cap but well under the old
	// hardcoded 100MB fallback.
	require.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024), 0o644))

	ix := &Indexer{}
	cfg := config.Default()
	cfg.MaxFileSizeMB = 1

	cand := scanner.Candidate{AbsPath: path, RelPath: "big.txt", Size: 2 * 1024 * 1024}
	rec := &fileRecord{}
	err := ix.hashOnly(cfg, cand, rec)
	require.Error(t, err)
	assert.Equal(t, kdexerr.FileTooLarge, kdexerr.KindOf(err))
}
