package domain

import (
	"strings"
	"time"
)

// Command describes a single external process invocation.
type Command struct {
	// Name is a human friendly label used in logs and metrics. Defaults to Binary.
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Binary string   `yaml:"command" json:"command"`
	Args   []string `yaml:"args,omitempty" json:"args,omitempty"`
	// Dir is the working directory. Empty means the runner's base directory.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Label returns Name, falling back to the binary.
func (c Command) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Binary
}

// String renders the command line.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// WithDir returns a copy of the command bound to dir.
func (c Command) WithDir(dir string) Command {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of the command with extra environment pairs.
func (c Command) WithEnv(env ...string) Command {
	merged := make([]string, 0, len(c.Env)+len(env))
	merged = append(merged, c.Env...)
	c.Env = append(merged, env...)
	return c
}

// OutputStream identifies the source stream of an output line.
type OutputStream string

const (
	Stdout OutputStream = "stdout"
	Stderr OutputStream = "stderr"
)

// OutputLine is a single line emitted by a process, without the trailing newline.
type OutputLine struct {
	Stream OutputStream
	Text   string
	Time   time.Time
}

// Result is the observed outcome of a process that was launched and exited.
// A non-zero ExitCode is not an error by itself; callers opt in with Check.
type Result struct {
	Command  Command
	ExitCode int
	Lines    []OutputLine
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Check returns an *ExitError when the process exited with a non-zero status.
func (r *Result) Check() error {
	if r == nil {
		return ErrOperationFailed
	}
	if r.ExitCode != 0 {
		return &ExitError{Command: r.Command, ExitCode: r.ExitCode}
	}
	return nil
}

// Stdout joins the captured standard output lines.
func (r *Result) Stdout() string {
	return r.join(Stdout)
}

// Stderr joins the captured standard error lines.
func (r *Result) Stderr() string {
	return r.join(Stderr)
}

func (r *Result) join(stream OutputStream) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, l := range r.Lines {
		if l.Stream != stream {
			continue
		}
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
