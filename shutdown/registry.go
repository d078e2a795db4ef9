package shutdown

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
)

// Close order for the summarizer's resources. Lower runs first: stop taking
// requests, flush queued history, then close what the flush needed.
const (
	PriorityHTTPServer = 10
	PriorityHistory    = 20
	PriorityCache      = 30
	PriorityDatabase   = 35
	PriorityLogger     = 90
)

type hookEntry struct {
	name     string
	priority int
	hook     Hook
}

// Hooks is an ordered set of cleanups. Equal priorities keep registration order.
type Hooks struct {
	mu   sync.Mutex
	list []hookEntry
	ran  bool
}

// Add registers hook. Hooks added after Run are dropped.
func (h *Hooks) Add(name string, priority int, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ran {
		return
	}
	h.list = append(h.list, hookEntry{name: name, priority: priority, hook: hook})
}

// ordered returns a sorted copy; the caller holds mu.
func (h *Hooks) ordered() []hookEntry {
	out := slices.Clone(h.list)
	slices.SortStableFunc(out, func(a, b hookEntry) int {
		return cmp.Compare(a.priority, b.priority)
	})
	return out
}

// Run calls every hook once and returns the failures, each tagged with the
// hook's name. A failing hook does not stop the ones after it. Later calls
// return nil.
func (h *Hooks) Run(ctx context.Context) []error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	list := h.ordered()
	h.mu.Unlock()

	var errs []error
	for _, e := range list {
		if err := e.hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}

// Names lists hooks in run order.
func (h *Hooks) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.list))
	for _, e := range h.ordered() {
		names = append(names, e.name)
	}
	return names
}

func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.list)
}
