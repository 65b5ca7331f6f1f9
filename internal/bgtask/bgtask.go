// Package bgtask tracks fire-and-forget background cognition tasks
// (journal synthesis, distillation, reflection+promotion) so that their
// failures are logged and never escape to the foreground loop, and so
// in-flight tasks can be cancelled at shutdown (spec §4.4 Phase E, §5,
// §9's redesign note: "model as task-handle values held in a set").
//
// Grounded on original_source/hermitcrab/agent/loop.py's
// _schedule_background (fire-and-forget with CancelledError/Exception
// handling, self-removal from a tracked set) as the behavioral template,
// and on the teacher's use of github.com/google/uuid for correlatable ids.
package bgtask

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one scheduled background task.
type Handle struct {
	ID     string
	Name   string
	cancel context.CancelFunc
}

// Tracker holds every in-flight background task, keyed by id, so the set
// is inspectable and every task can be cancelled together at shutdown.
type Tracker struct {
	mu     sync.Mutex
	tasks  map[string]*Handle
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewTracker constructs an empty Tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{tasks: make(map[string]*Handle), logger: logger}
}

// Go launches fn in its own goroutine under a child of parent, wrapped in
// an envelope that recovers from panics, logs any error fn returns, and
// self-removes from the tracked set on completion — whether fn succeeded,
// failed, or was cancelled (spec §9 redesign note; spec §7's propagation
// policy: "a background failure [never] escape[s]").
func (t *Tracker) Go(parent context.Context, name string, fn func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	h := &Handle{ID: id, Name: name, cancel: cancel}

	t.mu.Lock()
	t.tasks[id] = h
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			t.mu.Lock()
			delete(t.tasks, id)
			t.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("bgtask: panic recovered", "task", name, "id", id, "panic", r)
			}
		}()

		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				t.logger.Debug("bgtask: cancelled", "task", name, "id", id)
				return
			}
			t.logger.Warn("bgtask: failed", "task", name, "id", id, "error", err)
		}
	}()

	return h
}

// Cancel cancels a single tracked task by handle, if still running.
func (t *Tracker) Cancel(h *Handle) {
	if h != nil && h.cancel != nil {
		h.cancel()
	}
}

// CancelAll cancels every currently tracked task.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	handles := make([]*Handle, 0, len(t.tasks))
	for _, h := range t.tasks {
		handles = append(handles, h)
	}
	t.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
}

// Wait blocks until every tracked task (including ones scheduled after
// this call but before they complete) has returned. Intended for clean
// shutdown after CancelAll.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Count returns the number of currently in-flight tasks.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}
