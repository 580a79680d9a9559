package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) action(err error) graph.Action {
	return func(_ context.Context, inv *graph.Invocation) error {
		r.calls = append(r.calls, inv.Label())
		return err
	}
}

func TestRunner_PrerequisiteOrder(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().
		Register(graph.Task{Name: "A", Action: rec.action(nil)}).
		Register(graph.Task{Name: "B", Action: rec.action(nil)}).
		Register(graph.Task{Name: "C", Prerequisites: []string{"A", "B"}, Action: rec.action(nil)}).
		Build()

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "C"))
	assert.Equal(t, []string{"A", "B", "C"}, rec.calls)
}

func TestRunner_FailureStopsRemaining(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("A broke")
	g := graph.NewBuilder().
		Register(graph.Task{Name: "A", Action: rec.action(boom)}).
		Register(graph.Task{Name: "B", Action: rec.action(nil)}).
		Register(graph.Task{Name: "C", Prerequisites: []string{"A", "B"}, Action: rec.action(nil)}).
		Build()

	err := graph.NewRunner(g).Run(context.Background(), "C")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A"}, rec.calls)

	var taskErr *domain.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "A", taskErr.Task)
	assert.Equal(t, `task "A": A broke`, domain.Reason(err))
}

func TestRunner_NoDeduplication(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().
		Register(graph.Task{Name: "fixtures", Action: rec.action(nil)}).
		Register(graph.Task{Name: "a", Prerequisites: []string{"fixtures"}, Action: rec.action(nil)}).
		Register(graph.Task{Name: "b", Prerequisites: []string{"fixtures"}, Action: rec.action(nil)}).
		Alias("all", "", "a", "b").
		Build()

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "all"))
	assert.Equal(t, []string{"fixtures", "a", "fixtures", "b"}, rec.calls)
}

func TestRunner_LastRegistrationWins(t *testing.T) {
	rec := &recorder{}
	b := graph.NewBuilder().
		Alias("test", "run everything", "lint").
		Register(graph.Task{Name: "lint", Action: rec.action(nil)}).
		Register(graph.Task{Name: "unit", Action: rec.action(nil)})
	b.Register(graph.Task{Name: "test", Prerequisites: []string{"unit"}})
	g := b.Build()

	task, ok := g.Lookup("test")
	require.True(t, ok)
	assert.Empty(t, task.Description, "replacement is total")

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "test"))
	assert.Equal(t, []string{"unit"}, rec.calls)
}

func TestRunner_LateRegistration(t *testing.T) {
	rec := &recorder{}
	b := graph.NewBuilder().Alias("demo", "", "generateDemo")
	b.Register(graph.Task{Name: "generateDemo", Action: rec.action(nil)})

	require.NoError(t, graph.NewRunner(b.Build()).Run(context.Background(), "demo"))
	assert.Equal(t, []string{"generateDemo"}, rec.calls)
}

func TestRunner_NotFound(t *testing.T) {
	g := graph.NewBuilder().Alias("demo", "", "missing").Build()
	runner := graph.NewRunner(g)

	var nf *domain.TaskNotFoundError
	err := runner.Run(context.Background(), "demo")
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.Name)
	assert.Equal(t, "demo", nf.RequiredBy)

	err = runner.Run(context.Background(), "nope")
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, nf.RequiredBy)
}

func TestRunner_Cycle(t *testing.T) {
	g := graph.NewBuilder().
		Alias("a", "", "b").
		Alias("b", "", "c").
		Alias("c", "", "a").
		Build()

	var cycle *domain.CycleError
	err := graph.NewRunner(g).Run(context.Background(), "a")
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycle.Path)
}

func TestRunner_Targets(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().
		Register(graph.Task{Name: "clean", Targets: []string{"demo", "fixtures"}, Action: rec.action(nil)}).
		Register(graph.Task{Name: "bump", Action: rec.action(nil)}).
		Build()
	runner := graph.NewRunner(g)

	require.NoError(t, runner.Run(context.Background(), "clean:demo"))
	assert.Equal(t, []string{"clean:demo"}, rec.calls)

	rec.calls = nil
	require.NoError(t, runner.Run(context.Background(), "clean"))
	assert.Equal(t, []string{"clean:demo", "clean:fixtures"}, rec.calls)

	rec.calls = nil
	require.NoError(t, runner.Run(context.Background(), "bump"))
	assert.Equal(t, []string{"bump"}, rec.calls, "single target tasks run once without target")
}

func TestRunner_TargetArgs(t *testing.T) {
	var got *graph.Invocation
	g := graph.NewBuilder().
		Func("deps", "", func(_ context.Context, inv *graph.Invocation) error {
			got = inv
			return nil
		}).
		Build()

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "deps:app:x:y"))
	assert.Equal(t, "deps", got.Name)
	assert.Equal(t, "app", got.Target)
	assert.Equal(t, []string{"x", "y"}, got.Args)
}

func TestRunner_ExactNameBeatsTarget(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().
		Register(graph.Task{Name: "buildcontrol", Action: rec.action(nil)}).
		Register(graph.Task{Name: "buildcontrol:release", Action: func(context.Context, *graph.Invocation) error {
			rec.calls = append(rec.calls, "exact")
			return nil
		}}).
		Build()

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "buildcontrol:release"))
	assert.Equal(t, []string{"exact"}, rec.calls)
}

func TestInvocation_Run(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().
		Func("env", "", func(_ context.Context, inv *graph.Invocation) error {
			inv.Env.Set("SKIP_E2E", "true")
			return nil
		}).
		Func("mocha", "", func(_ context.Context, inv *graph.Invocation) error {
			rec.calls = append(rec.calls, "mocha SKIP_E2E="+inv.Env.Get("SKIP_E2E"))
			return nil
		}).
		Func("test", "", func(ctx context.Context, inv *graph.Invocation) error {
			if inv.Target == "fast" {
				if err := inv.Run(ctx, "env:fast"); err != nil {
					return err
				}
			}
			return inv.Run(ctx, "mocha")
		}).
		Build()

	require.NoError(t, graph.NewRunner(g).Run(context.Background(), "test:fast"))
	assert.Equal(t, []string{"mocha SKIP_E2E=true"}, rec.calls)
}

func TestInvocation_RunDetectsCycle(t *testing.T) {
	g := graph.NewBuilder().
		Func("loop", "", func(ctx context.Context, inv *graph.Invocation) error {
			return inv.Run(ctx, "loop")
		}).
		Build()

	var cycle *domain.CycleError
	err := graph.NewRunner(g).Run(context.Background(), "loop")
	require.True(t, errors.As(err, &cycle))
}

func TestInvocation_Options(t *testing.T) {
	type publishOptions struct {
		Remote string   `mapstructure:"remote"`
		Branch string   `mapstructure:"branch"`
		Files  []string `mapstructure:"files"`
		Force  bool     `mapstructure:"force"`
	}

	var got publishOptions
	g := graph.NewBuilder().
		Register(graph.Task{
			Name:    "buildcontrol",
			Targets: []string{"release"},
			Options: map[string]any{"remote": "origin", "branch": "gh-pages", "files": []string{"a"}},
			Action: func(_ context.Context, inv *graph.Invocation) error {
				return inv.Options(&got)
			},
		}).
		Build()

	runner := graph.NewRunner(g, graph.WithOptions(map[string]map[string]any{
		"buildcontrol":         {"remote": "upstream"},
		"buildcontrol:release": {"branch": "release", "force": "true"},
	}))
	require.NoError(t, runner.Run(context.Background(), "buildcontrol:release"))
	assert.Equal(t, publishOptions{Remote: "upstream", Branch: "release", Files: []string{"a"}, Force: true}, got)
}

func TestRunner_Hooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnTaskStart: func(_ context.Context, e *domain.TaskEvent) {
			events = append(events, "start "+e.Task)
			assert.Equal(t, "run-1", e.RunID)
		},
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			events = append(events, "finish "+e.Task)
		},
	}
	g := graph.NewBuilder().
		Func("a", "", func(context.Context, *graph.Invocation) error { return nil }).
		Register(graph.Task{Name: "b", Prerequisites: []string{"a"}, Action: func(context.Context, *graph.Invocation) error { return nil }}).
		Build()

	require.NoError(t, graph.NewRunner(g, graph.WithHooks(hooks), graph.WithRunID("run-1")).Run(context.Background(), "b"))
	assert.Equal(t, []string{"start a", "finish a", "start b", "finish b"}, events)
}

func TestRunner_PanicBecomesTaskError(t *testing.T) {
	g := graph.NewBuilder().
		Func("a", "", func(context.Context, *graph.Invocation) error { panic("kaboom") }).
		Build()

	err := graph.NewRunner(g).Run(context.Background(), "a")
	var taskErr *domain.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunner_CancelledContext(t *testing.T) {
	rec := &recorder{}
	g := graph.NewBuilder().Func("a", "", rec.action(nil)).Build()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := graph.NewRunner(g).Run(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
}
