package graph

import (
	"os"
	"sort"
	"sync"
)

// Env is the environment shared by every task of one run. Values set by a
// task (env:fast) are visible to the tasks that follow it.
type Env struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewEnv creates an environment seeded with vars.
func NewEnv(vars map[string]string) *Env {
	e := &Env{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// Set assigns key.
func (e *Env) Set(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
}

// Lookup returns the run value of key, falling back to the process environment.
func (e *Env) Lookup(key string) (string, bool) {
	e.mu.RLock()
	v, ok := e.vars[key]
	e.mu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// Get is Lookup without the presence flag.
func (e *Env) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// Environ returns the run values as sorted KEY=VALUE pairs, ready to append
// to a command environment.
func (e *Env) Environ() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
