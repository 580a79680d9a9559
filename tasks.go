package gantry

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/gantry/internal/release"
	"github.com/aretw0/gantry/pkg/graph"
	"github.com/aretw0/gantry/pkg/workdir"
)

type bumpOptions struct {
	File string `mapstructure:"file"`
}

type stageOptions struct {
	Files []string `mapstructure:"files"`
}

type davidOptions struct {
	// Package is the manifest whose directory is checked.
	Package string `mapstructure:"package"`
}

// register declares every built-in task. Order matters only for names
// registered twice: the later registration wins.
func (p *Project) register(b *graph.Builder) *graph.Builder {
	b.Register(graph.Task{
		Name:        "bump",
		Description: "bump manifest version (bump:patch|minor|major|prerelease)",
		Options:     map[string]any{"file": p.cfg.Release.PkgFile},
		Action:      p.bump,
	})
	b.Register(graph.Task{
		Name:        "stage",
		Description: "git add files before running the release task",
		Options:     map[string]any{"files": []string{"CHANGELOG.md"}},
		Action:      p.stage,
	})
	b.Register(graph.Task{
		Name:        "clean",
		Description: "remove generated files, keeping preserved entries",
		Targets:     []string{"demo"},
		Action:      p.clean,
	})
	b.Func("generateDemo", "generate demo", func(ctx context.Context, _ *graph.Invocation) error {
		return p.demo.Generate(ctx)
	})
	b.Func("releaseDemoBuild", "builds and releases demo", func(ctx context.Context, _ *graph.Invocation) error {
		return p.demo.ReleaseBuild(ctx)
	})
	b.Func("updateFixtures", "updates package and bower fixtures", func(ctx context.Context, _ *graph.Invocation) error {
		return p.fixtures.UpdateFixtures(ctx)
	})
	b.Func("installFixtures", "install package and bower fixtures", func(ctx context.Context, _ *graph.Invocation) error {
		return p.fixtures.InstallFixtures(ctx)
	})
	b.Register(graph.Task{
		Name:        "env",
		Description: "set run environment variables (env:fast skips e2e tests)",
		Targets:     []string{"fast"},
		Options:     map[string]any{"fast": map[string]any{"SKIP_E2E": "true"}},
		Action:      p.env,
	})
	b.Func("mochaTest", "run the generator test suite", func(ctx context.Context, inv *graph.Invocation) error {
		return p.suite.Run(ctx, inv.Env.Environ())
	})

	b.Alias("test", "update fixtures, install them and run the test suite",
		"updateFixtures", "installFixtures", "mochaTest")
	b.Func("test", "update fixtures, install them and run the test suite (test:fast skips e2e)", p.test)

	b.Register(graph.Task{
		Name:        "david",
		Description: "check dependencies for newer releases (david:gen|app)",
		Targets:     []string{"gen", "app"},
		Options: map[string]any{
			"gen": map[string]any{},
			"app": map[string]any{"package": p.cfg.Fixtures.Dir + "/package.json"},
		},
		Action: p.david,
	})
	b.Func("deps", "refresh fixtures when needed and check dependencies (deps:gen|app)", p.deps)

	b.Register(graph.Task{
		Name:        "buildcontrol",
		Description: "commit and push the demo build (buildcontrol:" + strings.Join(p.publishTargets(), "|") + ")",
		Targets:     p.publishTargets(),
		Action: func(ctx context.Context, inv *graph.Invocation) error {
			return p.publisher.Publish(ctx, inv.Target)
		},
	})

	b.Alias("demo", "clean and regenerate the demo", "clean:demo", "generateDemo")
	b.Alias("releaseDemo", "regenerate, build and publish the demo", "demo", "releaseDemoBuild", "buildcontrol:release")
	return b
}

func (p *Project) bump(_ context.Context, inv *graph.Invocation) error {
	var opts bumpOptions
	if err := inv.Options(&opts); err != nil {
		return err
	}
	next, err := release.Bump(inv.Dir.Join(opts.File), inv.Target)
	if err != nil {
		return err
	}
	inv.Logger.Info("Version bumped to " + next)
	return nil
}

func (p *Project) stage(ctx context.Context, inv *graph.Invocation) error {
	var opts stageOptions
	if err := inv.Options(&opts); err != nil {
		return err
	}
	return release.Stage(ctx, p.runner, inv.Dir, opts.Files)
}

func (p *Project) clean(ctx context.Context, inv *graph.Invocation) error {
	switch inv.Target {
	case "demo":
		return p.demo.Clean(ctx)
	}
	return fmt.Errorf("unknown clean target %q", inv.Target)
}

func (p *Project) env(_ context.Context, inv *graph.Invocation) error {
	var opts map[string]map[string]string
	if err := inv.Options(&opts); err != nil {
		return err
	}
	vars, ok := opts[inv.Target]
	if !ok {
		return fmt.Errorf("unknown env target %q", inv.Target)
	}
	for k, v := range vars {
		inv.Env.Set(k, v)
	}
	return nil
}

func (p *Project) test(ctx context.Context, inv *graph.Invocation) error {
	if inv.Target == "fast" {
		if err := inv.Run(ctx, "env:fast"); err != nil {
			return err
		}
	}
	return inv.Run(ctx, "updateFixtures", "installFixtures", "mochaTest")
}

func (p *Project) david(ctx context.Context, inv *graph.Invocation) error {
	var opts map[string]davidOptions
	if err := inv.Options(&opts); err != nil {
		return err
	}
	target, ok := opts[inv.Target]
	if !ok {
		return fmt.Errorf("unknown david target %q", inv.Target)
	}
	dir := inv.Dir
	if target.Package != "" {
		d, err := workdir.New(filepath.Dir(inv.Dir.Join(target.Package)))
		if err != nil {
			return err
		}
		dir = d
	}
	_, err := p.outdated.Check(ctx, dir)
	return err
}

func (p *Project) deps(ctx context.Context, inv *graph.Invocation) error {
	if inv.Target == "" || inv.Target == "app" {
		if err := inv.Run(ctx, "updateFixtures"); err != nil {
			return err
		}
	}
	return inv.Run(ctx, "david:"+inv.Target)
}

func (p *Project) publishTargets() []string {
	names := make([]string, 0, len(p.cfg.Release.Targets))
	for name := range p.cfg.Release.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
