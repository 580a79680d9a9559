package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Gantry.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	// Same indigo to rose ramp used for every header
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _  __ _ _ __ | |_ _ __ _   _ ", "#818cf8"},
		{"  / _` |/ _` | '_ \\| __| '__| | | |", "#a78bfa"},
		{" | (_| | (_| | | | | |_| |  | |_| |", "#c084fc"},
		{"  \\__, |\\__,_|_| |_|\\__|_|   \\__, |", "#e879f9"},
		{"  |___/                      |___/ ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
