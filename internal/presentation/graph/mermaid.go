package graph

import (
	"fmt"
	"sort"
	"strings"

	taskgraph "github.com/aretw0/gantry/pkg/graph"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	VisitedTasks []string
	FailedTask   string
}

// GenerateMermaid produces a Mermaid flowchart of the task graph.
// It applies semantic styling:
// - Alias (prerequisites only): ("Rounded")
// - Multi-target: [["Subroutine"]]
// - Default: ["Rectangle"]
// - Unregistered prerequisite: {{"Hexagon"}}
// Edges point from a task to its prerequisites, in run order, labelled with
// the target when one is given.
func GenerateMermaid(g *taskgraph.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	missing := make(map[string]bool)
	for _, task := range g.Tasks() {
		safeID := sanitizeMermaidID(task.Name)

		opener, closer := "[", "]"
		switch {
		case task.IsAlias():
			opener, closer = "(", ")"
		case len(task.Targets) > 0:
			opener, closer = "[[", "]]"
		}
		label := task.Name
		if len(task.Targets) > 0 {
			label = fmt.Sprintf("%s <br/> %s", task.Name, strings.Join(task.Targets, " | "))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for i, pre := range task.Prerequisites {
			name, target, _ := strings.Cut(pre, ":")
			if _, ok := g.Lookup(pre); ok {
				name, target = pre, ""
			} else if _, ok := g.Lookup(name); !ok {
				missing[name] = true
			}
			arrow := fmt.Sprintf("-- \"%d\" -->", i+1)
			if target != "" {
				arrow = fmt.Sprintf("-- \"%d: %s\" -->", i+1, strings.ReplaceAll(target, "\"", "'"))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(name)))
		}
	}

	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("    %s{{\"%s ?\"}}\n", sanitizeMermaidID(name), name))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, name := range overlay.VisitedTasks {
			safeID := sanitizeMermaidID(name)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.FailedTask != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.FailedTask)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
