// Package watcher implements the Watcher component (spec.md §4.8): it
// watches a set of repository roots, coalesces filesystem events over a
// debounce window, and hands the resulting change set to the Indexer as a
// scoped incremental run.
package watcher

import "time"

// Kind is the coalesced disposition of a watched path at the end of a
// debounce window.
type Kind int

const (
	KindCreate Kind = iota
	KindModify
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "created"
	case KindModify:
		return "modified"
	case KindDelete:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one coalesced filesystem change, scoped to a single repository
// root and a path relative to it.
type Change struct {
	Root    string
	RelPath string
	Kind    Kind
}

// rawEvent is one observed, un-coalesced filesystem event, before the
// debounce window merges it with any other event for the same path.
type rawEvent struct {
	root    string
	relPath string
	kind    Kind
	seen    time.Time
}

func changeKey(root, relPath string) string { return root + "\x00" + relPath }
