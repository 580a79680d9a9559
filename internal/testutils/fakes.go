package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
)

// Response is the scripted outcome of a fake command.
type Response struct {
	ExitCode int
	Stdout   []string
	// Err is returned instead of a result, typically a *domain.SpawnError.
	Err error
}

// FakeRunner records every command and answers from a script keyed by the
// command line ("npm install --quiet"). Unscripted commands exit 0.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []domain.Command
}

var _ ports.ProcessRunner = (*FakeRunner)(nil)

// NewFakeRunner creates an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (f *FakeRunner) On(commandLine string, r Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[commandLine] = r
	return f
}

// Fail scripts a spawn failure for a command line.
func (f *FakeRunner) Fail(commandLine string, err error) *FakeRunner {
	return f.On(commandLine, Response{Err: err})
}

// Run implements ports.ProcessRunner.
func (f *FakeRunner) Run(ctx context.Context, cmd domain.Command) (*domain.Result, error) {
	return f.Stream(ctx, cmd, nil)
}

// Stream implements ports.ProcessRunner.
func (f *FakeRunner) Stream(_ context.Context, cmd domain.Command, onLine func(domain.OutputLine)) (*domain.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	r := f.responses[cmd.String()]
	f.mu.Unlock()

	if r.Err != nil {
		if _, ok := r.Err.(*domain.SpawnError); ok {
			return nil, r.Err
		}
		return nil, &domain.SpawnError{Command: cmd, Err: r.Err}
	}
	result := &domain.Result{Command: cmd, ExitCode: r.ExitCode}
	for _, text := range r.Stdout {
		line := domain.OutputLine{Stream: domain.Stdout, Text: text}
		result.Lines = append(result.Lines, line)
		if onLine != nil {
			onLine(line)
		}
	}
	return result, nil
}

// Calls returns the recorded commands.
func (f *FakeRunner) Calls() []domain.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Command(nil), f.calls...)
}

// CommandLines returns the recorded command lines.
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Dirs returns the working directory of every recorded command.
func (f *FakeRunner) Dirs() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Dir
	}
	return out
}

// HasPrefix reports whether any recorded command line starts with prefix.
func (f *FakeRunner) HasPrefix(prefix string) bool {
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// FakeScaffolder records scaffold requests.
type FakeScaffolder struct {
	mu       sync.Mutex
	Err      error
	Requests []ports.ScaffoldRequest
	Dirs     []workdir.Dir
	// OnScaffold runs inside Scaffold when set, e.g. to write files.
	OnScaffold func(dir workdir.Dir) error
}

var _ ports.Scaffolder = (*FakeScaffolder)(nil)

// Scaffold implements ports.Scaffolder.
func (f *FakeScaffolder) Scaffold(_ context.Context, dir workdir.Dir, req ports.ScaffoldRequest) error {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.Dirs = append(f.Dirs, dir)
	hook := f.OnScaffold
	f.mu.Unlock()
	if hook != nil {
		if err := hook(dir); err != nil {
			return err
		}
	}
	return f.Err
}
