// Package graph models named build tasks with prerequisites and runs them.
//
// A Graph is an immutable snapshot produced by a Builder. Registration is
// last-wins: registering a name again replaces the whole task. Names are
// resolved at run time, so a prerequisite may refer to a task registered
// after the task that depends on it.
package graph

import (
	"context"
	"sort"
	"strings"
)

// Action is the work a task performs after its prerequisites completed.
type Action func(ctx context.Context, inv *Invocation) error

// Task is a named unit of work.
type Task struct {
	Name        string
	Description string
	// Prerequisites run in order before Action. Entries may carry a target
	// ("clean:demo").
	Prerequisites []string
	Action        Action
	// Options holds the declared defaults decoded by Invocation.Options.
	Options map[string]any
	// Targets makes the task multi-target: invoked without a target it
	// runs once per entry, in order.
	Targets []string
}

// IsAlias reports whether the task only groups other tasks.
func (t Task) IsAlias() bool {
	return t.Action == nil
}

// Graph is an immutable set of tasks keyed by name.
type Graph struct {
	tasks map[string]Task
}

// Lookup returns the task registered under the exact name.
func (g *Graph) Lookup(name string) (Task, bool) {
	if g == nil {
		return Task{}, false
	}
	t, ok := g.tasks[name]
	return t, ok
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.tasks)
}

// Tasks returns every task sorted by name.
func (g *Graph) Tasks() []Task {
	if g == nil {
		return nil
	}
	out := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// With returns a copy of g where t replaces any task of the same name.
func (g *Graph) With(t Task) *Graph {
	next := &Graph{tasks: make(map[string]Task, g.Len()+1)}
	if g != nil {
		for name, existing := range g.tasks {
			next.tasks[name] = existing
		}
	}
	next.tasks[t.Name] = cloneTask(t)
	return next
}

// Resolve returns the task an invocation name refers to, and the target
// selected by the name, if any.
func (g *Graph) Resolve(name string) (Task, string, bool) {
	ref, ok := g.resolve(name)
	return ref.task, ref.target, ok
}

// reference is a parsed invocation name.
type reference struct {
	task   Task
	target string
	args   []string
}

// resolve maps an invocation name to a task. An exact match wins; otherwise
// the name is split at the first colon into task and target, and any further
// colon-separated parts become arguments.
func (g *Graph) resolve(name string) (reference, bool) {
	if t, ok := g.Lookup(name); ok {
		return reference{task: t}, true
	}
	base, rest, found := strings.Cut(name, ":")
	if !found {
		return reference{}, false
	}
	t, ok := g.Lookup(base)
	if !ok {
		return reference{}, false
	}
	parts := strings.Split(rest, ":")
	return reference{task: t, target: parts[0], args: parts[1:]}, true
}

func cloneTask(t Task) Task {
	t.Prerequisites = append([]string(nil), t.Prerequisites...)
	t.Targets = append([]string(nil), t.Targets...)
	if t.Options != nil {
		opts := make(map[string]any, len(t.Options))
		for k, v := range t.Options {
			opts[k] = v
		}
		t.Options = opts
	}
	return t
}
