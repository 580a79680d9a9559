// Package demo regenerates, builds and deploys the demo application.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/chain"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/bmatcuk/doublestar/v4"
)

// Options is the fixed feature selection the demo is generated with.
func Options() map[string]any {
	return map[string]any{
		"script":      "js",
		"markup":      "html",
		"stylesheet":  "sass",
		"router":      "uirouter",
		"bootstrap":   true,
		"uibootstrap": true,
		"mongoose":    true,
		"testing":     "jasmine",
		"auth":        true,
		"oauth":       []string{"googleAuth", "twitterAuth"},
		"socketio":    true,
	}
}

// Controller owns the demo directory.
type Controller struct {
	root       workdir.Dir
	cfg        config.DemoConfig
	runner     ports.ProcessRunner
	scaffolder ports.Scaffolder
	logger     *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a demo controller for the project at root.
func NewController(root workdir.Dir, cfg config.DemoConfig, runner ports.ProcessRunner, scaffolder ports.Scaffolder, opts ...Option) *Controller {
	c := &Controller{
		root:       root,
		cfg:        cfg,
		runner:     runner,
		scaffolder: scaffolder,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the demo directory.
func (c *Controller) Dir() workdir.Dir {
	return c.root.Sub(c.cfg.Dir)
}

// Clean removes every entry of the demo directory, dot files included,
// except those matching a preserve pattern. A missing directory is a no-op.
func (c *Controller) Clean(ctx context.Context) error {
	dir := c.Dir()
	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read demo directory: %w", err)
	}

	for _, e := range entries {
		keep, err := c.preserved(e.Name())
		if err != nil {
			return err
		}
		if keep {
			c.logger.DebugContext(ctx, "preserved", "entry", e.Name())
			continue
		}
		if err := os.RemoveAll(dir.Join(e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	c.logger.InfoContext(ctx, "demo cleaned", "dir", dir.Path())
	return nil
}

func (c *Controller) preserved(name string) (bool, error) {
	for _, pattern := range c.cfg.Preserve {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("preserve pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Generate scaffolds a fresh demo application into the demo directory.
func (c *Controller) Generate(ctx context.Context) error {
	return workdir.Within(c.root, c.cfg.Dir, true, func(dir workdir.Dir) error {
		req := ports.ScaffoldRequest{
			Generator: c.cfg.Generator,
			Options:   map[string]any{"skipInstall": false},
			Answers:   Options(),
		}
		c.logger.InfoContext(ctx, "generating demo", "dir", dir.Path(), "generator", req.Generator)
		if err := c.scaffolder.Scaffold(ctx, dir, req); err != nil {
			return fmt.Errorf("failed to generate demo: %w", err)
		}
		return nil
	})
}

// ReleaseBuild builds the demo and deploys it with its own build tool.
// Each command streams its output; completion, not exit status, advances
// to the next one.
func (c *Controller) ReleaseBuild(ctx context.Context) error {
	dir := c.Dir()
	build := domain.Command{Name: "demo.build", Binary: c.cfg.Build[0], Args: c.cfg.Build[1:], Dir: dir.Path()}
	deploy := domain.Command{Name: "demo.deploy", Binary: c.cfg.Deploy[0], Args: c.cfg.Deploy[1:], Dir: dir.Path()}

	return chain.New("releaseDemoBuild", chain.WithLogger(c.logger)).
		Then(build.Name, c.stream(build)).
		Then(deploy.Name, c.stream(deploy)).
		OnFailure(func(_ context.Context, err error) error {
			return fmt.Errorf("failed to release demo: %w", err)
		}).
		Run(ctx)
}

func (c *Controller) stream(cmd domain.Command) chain.StepFunc {
	return func(ctx context.Context) error {
		res, err := c.runner.Stream(ctx, cmd, func(line domain.OutputLine) {
			c.logger.DebugContext(ctx, line.Text, "command", cmd.Label(), "stream", line.Stream)
		})
		if err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "command finished", "command", cmd.String(), "exit_code", res.ExitCode)
		return nil
	}
}
