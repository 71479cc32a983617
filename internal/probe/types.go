package probe

import (
	"context"
	"sort"

	"github.com/hamed0406/praesto/internal/domain"
)

// Executor runs a single probe against a destination.
type Executor interface {
	Probe(ctx context.Context, destination string) domain.Outcome
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, destination string) domain.Outcome

func (f ExecutorFunc) Probe(ctx context.Context, destination string) domain.Outcome {
	return f(ctx, destination)
}

// Registry maps a check type to its executor. Register everything before
// sharing the registry across goroutines; lookups are read-only.
type Registry struct {
	executors map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

func (r *Registry) Register(kind string, e Executor) {
	r.executors[kind] = e
}

func (r *Registry) Lookup(kind string) (Executor, bool) {
	e, ok := r.executors[kind]
	return e, ok
}

func (r *Registry) Supports(kind string) bool {
	_, ok := r.executors[kind]
	return ok
}

// Kinds lists the registered check types in order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.executors))
	for k := range r.executors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
