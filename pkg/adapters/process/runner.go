package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
)

// maxLineSize bounds a single output line. A longer line stops line capture
// for that stream; the remaining output is discarded.
const maxLineSize = 1024 * 1024

// Runner spawns external processes. It implements ports.ProcessRunner.
//
// Every call launches exactly one process and never retries. A process that
// runs and exits with a non-zero status is reported through Result.ExitCode,
// not as an error: callers decide per call site whether to Check it.
type Runner struct {
	baseDir string
	env     []string
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the directory used for commands without an absolute Dir.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the environment of every process.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks registers process lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) RunnerOption {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd synchronously and returns its buffered output.
func (r *Runner) Run(ctx context.Context, cmd domain.Command) (*domain.Result, error) {
	exe, err := r.Start(ctx, cmd, nil)
	if err != nil {
		return nil, err
	}
	return exe.Wait()
}

// Stream executes cmd, delivering each output line to onLine as it arrives,
// and returns once the process exited and both streams are drained.
func (r *Runner) Stream(ctx context.Context, cmd domain.Command, onLine func(domain.OutputLine)) (*domain.Result, error) {
	exe, err := r.Start(ctx, cmd, onLine)
	if err != nil {
		return nil, err
	}
	return exe.Wait()
}

// Execution is a launched process whose outcome is pending.
type Execution struct {
	cmd     domain.Command
	c       *exec.Cmd
	ctx     context.Context
	runner  *Runner
	started time.Time

	streams sync.WaitGroup
	mu      sync.Mutex
	lines   []domain.OutputLine
	onLine  func(domain.OutputLine)

	once   sync.Once
	done   chan struct{}
	result *domain.Result
	err    error
}

// Start launches cmd and returns immediately. A launch failure is a *domain.SpawnError.
func (r *Runner) Start(ctx context.Context, cmd domain.Command, onLine func(domain.OutputLine)) (*Execution, error) {
	if cmd.Binary == "" {
		return nil, &domain.SpawnError{Command: cmd, Err: errors.New("binary is required")}
	}
	cmd.Dir = r.resolveDir(cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured commands is the purpose of this package
	c.Dir = cmd.Dir
	if len(r.env) > 0 || len(cmd.Env) > 0 {
		c.Env = append(append(c.Environ(), r.env...), cmd.Env...)
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, &domain.SpawnError{Command: cmd, Err: err}
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, &domain.SpawnError{Command: cmd, Err: err}
	}

	if err := c.Start(); err != nil {
		return nil, &domain.SpawnError{Command: cmd, Err: err}
	}

	exe := &Execution{
		cmd:     cmd,
		c:       c,
		ctx:     ctx,
		runner:  r,
		started: time.Now(),
		onLine:  onLine,
		done:    make(chan struct{}),
	}

	r.logger.DebugContext(ctx, "process started", "command", cmd.String(), "dir", cmd.Dir, "pid", c.Process.Pid)
	if r.hooks.OnProcessStart != nil {
		r.hooks.OnProcessStart(ctx, &domain.ProcessEvent{
			EventBase: domain.EventBase{Timestamp: exe.started, Type: domain.EventProcessStart},
			Command:   cmd,
		})
	}

	exe.streams.Add(2)
	go exe.consume(stdout, domain.Stdout)
	go exe.consume(stderr, domain.Stderr)
	return exe, nil
}

func (r *Runner) resolveDir(dir string) string {
	switch {
	case dir == "":
		return r.baseDir
	case filepath.IsAbs(dir) || r.baseDir == "":
		return dir
	default:
		return filepath.Join(r.baseDir, dir)
	}
}

func (e *Execution) consume(rd io.Reader, stream domain.OutputStream) {
	defer e.streams.Done()
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := domain.OutputLine{Stream: stream, Text: scanner.Text(), Time: time.Now()}
		e.mu.Lock()
		e.lines = append(e.lines, line)
		if e.onLine != nil {
			e.onLine(line)
		}
		e.mu.Unlock()
	}
	// Drain whatever the scanner refused so the child never blocks on a full pipe.
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, rd)
	}
}

// Done is closed once Wait has observed the exit.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the process exited and its output is drained.
// The exit code is recorded before Wait returns. It is safe to call more than once.
func (e *Execution) Wait() (*domain.Result, error) {
	e.once.Do(func() {
		e.streams.Wait()
		waitErr := e.c.Wait()

		e.mu.Lock()
		lines := e.lines
		e.mu.Unlock()

		e.result = &domain.Result{
			Command:  e.cmd,
			ExitCode: e.c.ProcessState.ExitCode(),
			Lines:    lines,
			Duration: time.Since(e.started),
		}

		var exitErr *exec.ExitError
		switch {
		case waitErr == nil:
		case e.ctx.Err() != nil:
			e.err = fmt.Errorf("process %s: killed by context: %w", e.cmd.Label(), e.ctx.Err())
		case errors.As(waitErr, &exitErr):
			// A non-zero status is an observation, not a failure of the runner.
		default:
			e.err = fmt.Errorf("process %s: %w", e.cmd.Label(), waitErr)
		}

		log := e.runner.logger
		log.DebugContext(e.ctx, "process exited", "command", e.cmd.String(), "exit_code", e.result.ExitCode, "duration", e.result.Duration)
		if hook := e.runner.hooks.OnProcessFinish; hook != nil {
			hook(e.ctx, &domain.ProcessEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventProcessFinish},
				Command:   e.cmd,
				ExitCode:  e.result.ExitCode,
				Duration:  e.result.Duration,
				Err:       e.err,
			})
		}
		close(e.done)
	})
	return e.result, e.err
}
