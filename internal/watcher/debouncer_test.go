package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	cases := []struct {
		name        string
		first, next Kind
		want        Kind
		keep        bool
	}{
		{"create then modify stays create", KindCreate, KindModify, KindCreate, true},
		{"create then delete becomes delete", KindCreate, KindDelete, KindDelete, true},
		{"modify then delete becomes delete", KindModify, KindDelete, KindDelete, true},
		{"delete then create becomes modify", KindDelete, KindCreate, KindModify, true},
		{"modify then modify stays modify", KindModify, KindModify, KindModify, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, keep := coalesce(c.first, c.next)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.keep, keep)
		})
	}
}

// TestDebouncerCreateModifyDeleteYieldsOneDeletedRun covers spec.md §8's
// literal scenario: create, modify, and delete the same file within the
// debounce window; after the window closes exactly one run is scheduled
// for that path with final kind deleted.
func TestDebouncerCreateModifyDeleteYieldsOneDeletedRun(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.stop()

	d.add("/repo", "a.md", KindCreate)
	d.add("/repo", "a.md", KindModify)
	d.add("/repo", "a.md", KindDelete)

	select {
	case changes := <-d.Output():
		require.Len(t, changes, 1)
		assert.Equal(t, "a.md", changes[0].RelPath)
		assert.Equal(t, KindDelete, changes[0].Kind)
	case <-time.After(time.Second):
		t.Fatal("expected exactly one debounced batch, got none")
	}
}

func TestDebouncerCoalescesMultipleEventsPerPathIntoOneBatch(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.stop()

	d.add("/repo", "a.md", KindCreate)
	d.add("/repo", "b.md", KindModify)
	d.add("/repo", "a.md", KindModify)

	select {
	case changes := <-d.Output():
		require.Len(t, changes, 2)
		byPath := map[string]Kind{}
		for _, c := range changes {
			byPath[c.RelPath] = c.Kind
		}
		assert.Equal(t, KindCreate, byPath["a.md"])
		assert.Equal(t, KindModify, byPath["b.md"])
	case <-time.After(time.Second):
		t.Fatal("expected one debounced batch, got none")
	}
}
