package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/observability"
	"github.com/aretw0/gantry/internal/presentation/graph"
	"github.com/aretw0/gantry/internal/presentation/tui"
	"github.com/aretw0/gantry/internal/validator"
	"github.com/aretw0/gantry/pkg/adapters/process"
	"github.com/aretw0/gantry/pkg/adapters/redis"
	"github.com/aretw0/gantry/pkg/domain"
)

// DefaultEnvFile is read from the project directory when --env-file is not set.
const DefaultEnvFile = ".env"

// RunOptions contains all the configuration shared by the gantry commands.
type RunOptions struct {
	Dir        string
	ConfigPath string
	EnvFile    string
	LogLevel   string
	Verbose    bool
	MetricsOut string
	RedisAddr  string

	// Stdout receives task headers and the final status line. Defaults to os.Stdout.
	Stdout io.Writer
	// Options are appended after the ones derived from the flags.
	Options []gantry.Option
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o RunOptions) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return filepath.Join(o.Dir, config.DefaultFile)
}

func (o RunOptions) envFile() string {
	if o.EnvFile != "" {
		return o.EnvFile
	}
	return filepath.Join(o.Dir, DefaultEnvFile)
}

// session is a project plus the resources it holds for one command.
type session struct {
	project *gantry.Project
	metrics *observability.Metrics
	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openSession loads the environment and configuration and builds the project.
func openSession(opts RunOptions, logger *slog.Logger, hooks domain.LifecycleHooks) (*session, error) {
	if err := config.LoadEnv(opts.envFile()); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return nil, err
	}

	s := &session{metrics: observability.NewMetrics()}
	projectOpts := []gantry.Option{
		gantry.WithConfig(cfg),
		gantry.WithLogger(logger),
		gantry.WithLifecycleHooks(s.metrics.Hooks().Merge(hooks)),
	}

	if cfg.Commands != "" {
		path := cfg.Commands
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.Dir, path)
		}
		cmds, err := process.LoadCommands(path)
		if err != nil {
			return nil, err
		}
		projectOpts = append(projectOpts, gantry.WithCommands(cmds))
	}

	addr := opts.RedisAddr
	if addr == "" {
		addr = cfg.Lock.Redis
	}
	if addr != "" {
		locker := redis.NewLockerFromAddr(addr, cfg.Lock.Prefix)
		s.closers = append(s.closers, locker.Close)
		projectOpts = append(projectOpts, gantry.WithLocker(locker))
		logger.Debug("using redis lock", "addr", addr)
	}

	projectOpts = append(projectOpts, opts.Options...)
	p, err := gantry.New(opts.Dir, projectOpts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.project = p
	return s, nil
}

// Execute runs the named tasks and reports the outcome on Stdout.
// The returned error is already reported; callers only need to set the exit code.
func Execute(opts RunOptions, tasks []string) error {
	logger, err := createLogger(opts.LogLevel, opts.Verbose)
	if err != nil {
		return err
	}
	printer := tui.NewPrinter(opts.stdout())

	hooks := createProgressHooks(printer)
	if opts.Verbose {
		hooks = hooks.Merge(observability.LogHooks(logger))
	}

	s, err := openSession(opts, logger, hooks)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	runErr := s.project.Run(ctx, tasks...)

	if opts.MetricsOut != "" {
		if err := s.metrics.WriteTextfile(opts.MetricsOut); err != nil {
			logger.Warn("failed to write metrics", "path", opts.MetricsOut, "error", err)
		}
	}

	if runErr != nil {
		reportFailure(printer, runErr, ctx.Signal())
		return runErr
	}
	printer.Success("Done.")
	return nil
}

// ListTasks writes the registered tasks to w. With markdown set, the
// table is rendered through glamour.
func ListTasks(opts RunOptions, w io.Writer, markdown bool) error {
	s, err := openSession(opts, logging.NewNop(), domain.LifecycleHooks{})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	g := s.project.Graph()
	if !markdown {
		for _, t := range g.Tasks() {
			fmt.Fprintf(w, "%-18s %s\n", t.Name, t.Description)
		}
		return nil
	}
	out, err := tui.NewRenderer()(tui.TaskListMarkdown(g))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// PrintGraph writes the task graph as a Mermaid diagram.
func PrintGraph(opts RunOptions, w io.Writer) error {
	s, err := openSession(opts, logging.NewNop(), domain.LifecycleHooks{})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	_, err = io.WriteString(w, graph.GenerateMermaid(s.project.Graph(), nil))
	return err
}

// Validate checks the task graph and reports every problem found.
func Validate(opts RunOptions, w io.Writer) error {
	s, err := openSession(opts, logging.NewNop(), domain.LifecycleHooks{})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := validator.ValidateGraph(s.project.Graph()); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d tasks, graph is valid\n", s.project.Graph().Len())
	return nil
}
