package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/gantry/pkg/graph"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// TaskListMarkdown renders the registered tasks as a markdown table.
func TaskListMarkdown(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("# Tasks\n\n")
	sb.WriteString("| Task | Runs | Description |\n")
	sb.WriteString("|---|---|---|\n")
	for _, t := range g.Tasks() {
		runs := strings.Join(t.Prerequisites, " → ")
		if len(t.Targets) > 0 {
			runs = strings.TrimPrefix(runs+" · targets: "+strings.Join(t.Targets, ", "), " · ")
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", t.Name, escapeCell(runs), escapeCell(t.Description))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
