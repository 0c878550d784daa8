package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func is one cleanup step. It should honor ctx's deadline.
type Func func(ctx context.Context) error

type entry struct {
	name     string
	priority int
	fn       Func
}

// registry holds cleanup steps; lower priority runs first and equal
// priorities keep registration order.
type registry struct {
	mu      sync.Mutex
	entries []entry
	ran     bool
}

func (r *registry) register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ran {
		return
	}
	r.entries = append(r.entries, entry{name: name, priority: priority, fn: fn})
}

func (r *registry) sorted() []entry {
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority < out[j].priority
	})
	return out
}

// run calls every step once, even after failures, and returns their errors
// prefixed with the step name.
func (r *registry) run(ctx context.Context) []error {
	r.mu.Lock()
	if r.ran {
		r.mu.Unlock()
		return nil
	}
	r.ran = true
	steps := r.sorted()
	r.mu.Unlock()

	var errs []error
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errs
}

func (r *registry) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	steps := r.sorted()
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.name
	}
	return names
}
