package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// debouncer coalesces rapid filesystem events per path over a fixed
// window (spec.md §4.8 step 2), merged according to:
//
//	CREATE + MODIFY = CREATE (file is still new)
//	CREATE + DELETE = DELETE (file is gone by window close)
//	MODIFY + DELETE = DELETE (file is gone)
//	DELETE + CREATE = MODIFY (file was replaced)
//
// Grounded on the teacher's internal/watcher/debouncer.go coalescing
// automaton, generalized from a bare path key to a (repo root, relative
// path) pair since this system watches many repository roots at once.
type debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*rawEvent
	timer   *time.Timer
	output  chan []Change
	stopped bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]*rawEvent),
		output:  make(chan []Change, 16),
	}
}

// add records one observed event, coalescing it with any pending event for
// the same (root, relPath).
func (d *debouncer) add(root, relPath string, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	key := changeKey(root, relPath)
	now := time.Now()
	if existing, ok := d.pending[key]; ok {
		merged, keep := coalesce(existing.kind, kind)
		if !keep {
			delete(d.pending, key)
		} else {
			existing.kind = merged
			existing.seen = now
		}
	} else {
		d.pending[key] = &rawEvent{root: root, relPath: relPath, kind: kind, seen: now}
	}
	d.scheduleFlush()
}

// coalesce returns the merged kind for a new event arriving while one is
// already pending. Later events overwrite earlier ones (spec.md §4.8 step
// 2: "later events overwrite earlier ones") with two exceptions: a create
// followed by a modify stays create, and a delete immediately followed by
// a create collapses to modify rather than reporting the path as freshly
// created.
func coalesce(first, next Kind) (Kind, bool) {
	switch first {
	case KindCreate:
		switch next {
		case KindModify:
			return KindCreate, true
		case KindDelete:
			return KindDelete, true
		default:
			return next, true
		}
	case KindModify:
		switch next {
		case KindDelete:
			return KindDelete, true
		default:
			return next, true
		}
	case KindDelete:
		switch next {
		case KindCreate:
			return KindModify, true
		default:
			return next, true
		}
	default:
		return next, true
	}
}

func (d *debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || len(d.pending) == 0 {
		return
	}

	changes := make([]Change, 0, len(d.pending))
	for _, e := range d.pending {
		changes = append(changes, Change{Root: e.root, RelPath: e.relPath, Kind: e.kind})
	}
	d.pending = make(map[string]*rawEvent)

	select {
	case d.output <- changes:
	default:
		slog.Warn("watcher debounce output full, dropping batch", slog.Int("batch_size", len(changes)))
	}
}

func (d *debouncer) Output() <-chan []Change { return d.output }

// stop flushes any pending window immediately, then stops accepting new
// events. Safe to call multiple times.
func (d *debouncer) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
	d.mu.Unlock()

	d.flushRemaining()
	close(d.output)
}

// flushRemaining drains whatever was pending at stop time so a graceful
// shutdown doesn't silently drop in-flight changes.
func (d *debouncer) flushRemaining() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	changes := make([]Change, 0, len(d.pending))
	for _, e := range d.pending {
		changes = append(changes, Change{Root: e.root, RelPath: e.relPath, Kind: e.kind})
	}
	d.pending = make(map[string]*rawEvent)
	d.mu.Unlock()

	select {
	case d.output <- changes:
	default:
	}
}
