package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/gantry/pkg/graph"
)

// ValidateGraph checks for missing prerequisites, targets outside a task's
// declared list, and prerequisite cycles, starting from every registered task.
func ValidateGraph(g *graph.Graph) error {
	var errors []string

	for _, t := range g.Tasks() {
		for _, pre := range t.Prerequisites {
			task, target, ok := g.Resolve(pre)
			if !ok {
				errors = append(errors, fmt.Sprintf("Missing prerequisite '%s' of task '%s'", pre, t.Name))
				continue
			}
			if target != "" && len(task.Targets) > 0 && !contains(task.Targets, target) {
				errors = append(errors, fmt.Sprintf("Unknown target '%s' in prerequisite of task '%s'", pre, t.Name))
			}
		}
	}

	// Crawler
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		switch state[name] {
		case done:
			return
		case visiting:
			errors = append(errors, fmt.Sprintf("Cycle: %s", strings.Join(append(path, name), " -> ")))
			return
		}
		state[name] = visiting
		t, _ := g.Lookup(name)
		for _, pre := range t.Prerequisites {
			next, _, ok := g.Resolve(pre)
			if !ok {
				continue
			}
			visit(next.Name, append(path, name))
		}
		state[name] = done
	}
	for _, t := range g.Tasks() {
		visit(t.Name, nil)
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
