package gantry

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/demo"
	"github.com/aretw0/gantry/internal/fixtures"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/release"
	"github.com/aretw0/gantry/internal/scaffold"
	"github.com/aretw0/gantry/internal/verify"
	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/adapters/process"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/graph"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
)

// Project is the high-level entry point: the task graph of one generator
// project bound to its collaborators.
type Project struct {
	root       workdir.Dir
	cfg        config.Config
	cfgSet     bool
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	runner     ports.ProcessRunner
	scaffolder ports.Scaffolder
	locker     ports.Locker
	commands   map[string]domain.Command
	extra      []graph.Task

	fixtures  *fixtures.Manager
	demo      *demo.Controller
	publisher *release.Publisher
	suite     *verify.Suite
	outdated  *verify.Outdated
	graph     *graph.Graph
}

// Option defines a functional option for configuring the Project.
type Option func(*Project)

// WithConfig replaces the configuration loaded from gantry.yaml.
func WithConfig(cfg config.Config) Option {
	return func(p *Project) {
		p.cfg = cfg
		p.cfgSet = true
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Project) {
		p.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for tasks and processes.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Project) {
		p.hooks = hooks
	}
}

// WithProcessRunner injects the process runner, bypassing the default one.
func WithProcessRunner(r ports.ProcessRunner) Option {
	return func(p *Project) {
		p.runner = r
	}
}

// WithScaffolder injects the scaffolding engine used by generateDemo.
func WithScaffolder(s ports.Scaffolder) Option {
	return func(p *Project) {
		p.scaffolder = s
	}
}

// WithLocker sets the lock guarding publishes. Defaults to an in-process lock.
func WithLocker(l ports.Locker) Option {
	return func(p *Project) {
		p.locker = l
	}
}

// WithCommands overrides built-in commands by name (see process.LoadCommands).
func WithCommands(cmds map[string]domain.Command) Option {
	return func(p *Project) {
		p.commands = cmds
	}
}

// WithTask registers an additional task after the built-in ones.
// A task with a built-in name replaces it.
func WithTask(t graph.Task) Option {
	return func(p *Project) {
		p.extra = append(p.extra, t)
	}
}

// New creates a Project rooted at root. Unless WithConfig is given,
// gantry.yaml is loaded from root; a missing file means defaults.
func New(root string, opts ...Option) (*Project, error) {
	dir, err := workdir.New(root)
	if err != nil {
		return nil, err
	}
	p := &Project{root: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if !p.cfgSet {
		cfg, err := config.Load(filepath.Join(dir.Path(), config.DefaultFile))
		if err != nil {
			return nil, err
		}
		p.cfg = cfg
	}

	if p.runner == nil {
		p.runner = process.NewRunner(
			process.WithBaseDir(dir.Path()),
			process.WithLogger(p.logger),
			process.WithHooks(p.hooks),
		)
	}
	if p.scaffolder == nil {
		p.scaffolder = scaffold.NewCommand(p.runner, p.cfg.Demo.Scaffold, scaffold.WithLogger(p.logger))
	}
	if p.locker == nil {
		p.locker = memory.NewLocker()
	}

	p.fixtures = fixtures.NewManager(dir, p.cfg.Fixtures, p.runner,
		fixtures.WithLogger(p.logger),
		fixtures.WithCommands(p.commands),
	)
	p.demo = demo.NewController(dir, p.cfg.Demo, p.runner, p.scaffolder, demo.WithLogger(p.logger))
	p.publisher = release.NewPublisher(dir, p.demo.Dir(), p.cfg.Release, p.runner, p.locker,
		release.WithLogger(p.logger),
		release.WithLockTTL(p.cfg.Lock.TTL),
	)
	p.suite = verify.NewSuite(dir, p.cfg.Test, p.runner, p.logger)
	p.outdated = verify.NewOutdated(p.cfg.Deps.Command, p.runner, p.logger)

	b := p.register(graph.NewBuilder())
	for _, t := range p.extra {
		b.Register(t)
	}
	p.graph = b.Build()
	return p, nil
}

// Root returns the project directory.
func (p *Project) Root() workdir.Dir { return p.root }

// Config returns the effective configuration.
func (p *Project) Config() config.Config { return p.cfg }

// Graph returns the task graph.
func (p *Project) Graph() *graph.Graph { return p.graph }

// Run executes the named tasks in order under one run ID.
func (p *Project) Run(ctx context.Context, names ...string) error {
	return graph.NewRunner(p.graph,
		graph.WithLogger(p.logger),
		graph.WithHooks(p.hooks),
		graph.WithDir(p.root),
		graph.WithOptions(p.cfg.TaskOptions()),
	).Run(ctx, names...)
}
