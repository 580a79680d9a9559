package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Printer writes styled status lines. Styling is dropped when the
// destination is not a terminal.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
}

// NewPrinter creates a printer for out.
func NewPrinter(out io.Writer) *Printer {
	profile := termenv.Ascii
	if f, ok := out.(*os.File); ok && IsInteractive(f) {
		profile = termenv.EnvColorProfile()
	}
	return &Printer{out: out, profile: profile}
}

// Header prints a section title such as the running task.
func (p *Printer) Header(format string, args ...any) {
	msg := p.profile.String(fmt.Sprintf(">>> "+format, args...)).Foreground(p.profile.Color("#a78bfa")).Bold()
	fmt.Fprintln(p.out, msg)
}

// Success prints a completion line.
func (p *Printer) Success(format string, args ...any) {
	msg := p.profile.String(fmt.Sprintf(format, args...)).Foreground(p.profile.Color("#22c55e"))
	fmt.Fprintln(p.out, msg)
}

// Error prints the failure reason.
func (p *Printer) Error(reason string) {
	msg := p.profile.String("Error: " + reason).Foreground(p.profile.Color("#ef4444")).Bold()
	fmt.Fprintln(p.out, msg)
}
