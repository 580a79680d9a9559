package graph

import "sync"

// Builder accumulates task registrations.
type Builder struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{tasks: make(map[string]Task)}
}

// Register adds a task. If a task with the same name exists, it is replaced entirely.
func (b *Builder) Register(t Task) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[t.Name] = cloneTask(t)
	return b
}

// Alias registers a task that only runs prerequisites.
func (b *Builder) Alias(name, description string, prerequisites ...string) *Builder {
	return b.Register(Task{Name: name, Description: description, Prerequisites: prerequisites})
}

// Func registers a task with an action and no prerequisites.
func (b *Builder) Func(name, description string, action Action) *Builder {
	return b.Register(Task{Name: name, Description: description, Action: action})
}

// Build returns an immutable snapshot. Later registrations do not affect it.
func (b *Builder) Build() *Graph {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g := &Graph{tasks: make(map[string]Task, len(b.tasks))}
	for name, t := range b.tasks {
		g.tasks[name] = cloneTask(t)
	}
	return g
}
