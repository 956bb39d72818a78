package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kdex-dev/kdex/internal/scanner"
	"github.com/kdex-dev/kdex/internal/store"
)

// TestClassify covers spec.md §4.6's 5-way decision between a candidate's
// on-disk stamp and its prior stored stamp.
func TestClassify(t *testing.T) {
	mtime := time.Unix(1700000000, 0)

	t.Run("no prior stamp is new", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 10, ModTime: mtime.UnixNano()}
		got := classify(c, store.FileStamp{}, false)
		assert.Equal(t, ClassNew, got)
	})

	t.Run("identical size and mtime is unchanged", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 10, ModTime: mtime.UnixNano()}
		prior := store.FileStamp{RelPath: "a.go", Size: 10, MTime: mtime}
		got := classify(c, prior, false)
		assert.Equal(t, ClassUnchanged, got)
	})

	t.Run("same size different mtime is suspect", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 10, ModTime: mtime.Add(time.Second).UnixNano()}
		prior := store.FileStamp{RelPath: "a.go", Size: 10, MTime: mtime}
		got := classify(c, prior, false)
		assert.Equal(t, ClassSuspect, got)
	})

	t.Run("different size is changed", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 11, ModTime: mtime.Add(time.Second).UnixNano()}
		prior := store.FileStamp{RelPath: "a.go", Size: 10, MTime: mtime}
		got := classify(c, prior, false)
		assert.Equal(t, ClassChanged, got)
	})

	t.Run("force reprocesses an existing file as changed", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 10, ModTime: mtime.UnixNano()}
		prior := store.FileStamp{RelPath: "a.go", Size: 10, MTime: mtime}
		got := classify(c, prior, true)
		assert.Equal(t, ClassChanged, got)
	})

	t.Run("force still reports an unseen file as new", func(t *testing.T) {
		c := scanner.Candidate{RelPath: "a.go", Size: 10, ModTime: mtime.UnixNano()}
		got := classify(c, store.FileStamp{}, true)
		assert.Equal(t, ClassNew, got)
	})
}
