package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/google/uuid"
)

// Runner executes tasks of a Graph.
type Runner struct {
	graph     *Graph
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	dir       workdir.Dir
	env       map[string]string
	overrides map[string]map[string]any
	runID     string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks registers task lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) RunnerOption {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithDir sets the project directory handed to every action.
func WithDir(dir workdir.Dir) RunnerOption {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithEnv seeds the run environment.
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) {
		r.env = env
	}
}

// WithOptions sets configured option overrides keyed by task name
// (or "task:target").
func WithOptions(overrides map[string]map[string]any) RunnerOption {
	return func(r *Runner) {
		r.overrides = overrides
	}
}

// WithRunID fixes the run identifier instead of generating one per Run.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner creates a runner for g.
func NewRunner(g *Graph, opts ...RunnerOption) *Runner {
	r := &Runner{graph: g, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.dir.IsZero() {
		r.dir = workdir.MustNew(".")
	}
	return r
}

// Graph returns the graph the runner executes.
func (r *Runner) Graph() *Graph { return r.graph }

// Run executes names in order. Each name runs its prerequisites depth-first
// before its own action. The first failure aborts the remaining work.
func (r *Runner) Run(ctx context.Context, names ...string) error {
	id := r.runID
	if id == "" {
		id = uuid.NewString()
	}
	run := &execution{
		runner: r,
		runID:  id,
		env:    NewEnv(r.env),
		logger: r.logger.With("run_id", id),
	}
	for _, name := range names {
		if err := run.invoke(ctx, name, nil, "", 0); err != nil {
			return err
		}
	}
	return nil
}

// execution is the state of one Run call.
type execution struct {
	runner *Runner
	runID  string
	env    *Env
	logger *slog.Logger
}

func (x *execution) invoke(ctx context.Context, name string, path []string, requiredBy string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ref, ok := x.runner.graph.resolve(name)
	if !ok {
		return &domain.TaskNotFoundError{Name: name, RequiredBy: requiredBy}
	}
	if slices.Contains(path, ref.task.Name) {
		cycle := append(slices.Clone(path), ref.task.Name)
		return &domain.CycleError{Path: cycle}
	}
	path = append(slices.Clone(path), ref.task.Name)

	if ref.target == "" && len(ref.task.Targets) > 0 {
		for _, target := range ref.task.Targets {
			if err := x.execute(ctx, reference{task: ref.task, target: target}, path, depth); err != nil {
				return err
			}
		}
		return nil
	}
	return x.execute(ctx, ref, path, depth)
}

func (x *execution) execute(ctx context.Context, ref reference, path []string, depth int) error {
	t := ref.task
	for _, pre := range t.Prerequisites {
		if err := x.invoke(ctx, pre, path, t.Name, depth+1); err != nil {
			return err
		}
	}
	if t.Action == nil {
		return nil
	}

	inv := &Invocation{
		Name:   t.Name,
		Target: ref.target,
		Args:   ref.args,
		Dir:    x.runner.dir,
		Env:    x.env,
		RunID:  x.runID,
		Depth:  depth,
		task:   t,
		run:    x,
		path:   path,
	}
	inv.Logger = x.logger.With("task", inv.Label())

	start := time.Now()
	inv.Logger.InfoContext(ctx, "task started")
	x.fire(ctx, x.runner.hooks.OnTaskStart, domain.EventTaskStart, inv, 0, nil)

	err := safeAction(ctx, t.Action, inv)

	elapsed := time.Since(start)
	x.fire(ctx, x.runner.hooks.OnTaskFinish, domain.EventTaskFinish, inv, elapsed, err)
	if err != nil {
		inv.Logger.ErrorContext(ctx, "task failed", "duration", elapsed, "error", err)
		return &domain.TaskError{Task: inv.Label(), Err: err}
	}
	inv.Logger.InfoContext(ctx, "task finished", "duration", elapsed)
	return nil
}

func (x *execution) fire(ctx context.Context, hook func(context.Context, *domain.TaskEvent), typ domain.EventType, inv *Invocation, d time.Duration, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RunID: x.runID},
		Task:      inv.Name,
		Target:    inv.Target,
		Depth:     inv.Depth,
		Duration:  d,
		Err:       err,
	})
}

func safeAction(ctx context.Context, action Action, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx, inv)
}
