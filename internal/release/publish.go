package release

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/chain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/template"
	"github.com/aretw0/gantry/pkg/workdir"
)

// Publisher commits the contents of a build directory and pushes it to a
// configured remote branch. Concurrent publishes of the same target are
// serialised through the locker.
type Publisher struct {
	root    workdir.Dir
	dir     workdir.Dir
	cfg     config.ReleaseConfig
	runner  ports.ProcessRunner
	locker  ports.Locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithLockTTL sets how long a publish lock is held before it expires.
func WithLockTTL(ttl time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.lockTTL = ttl
	}
}

// NewPublisher creates a publisher for the build directory dir of the project at root.
func NewPublisher(root, dir workdir.Dir, cfg config.ReleaseConfig, runner ports.ProcessRunner, locker ports.Locker, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		root:    root,
		dir:     dir,
		cfg:     cfg,
		runner:  runner,
		locker:  locker,
		lockTTL: 5 * time.Minute,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source describes the project revision a build was made from.
type Source struct {
	Name    string
	Version string
	Commit  string
	Branch  string
}

// Message renders the commit message for src. Template markers see
// pkg.version and version; %sourceName%, %sourceCommit% and %sourceBranch%
// placeholders are replaced afterwards.
func (p *Publisher) Message(src Source) (string, error) {
	msg, err := template.Reduce(p.cfg.Message, template.Bindings{
		"pkg":     map[string]any{"name": src.Name, "version": src.Version},
		"version": src.Version,
	})
	if err != nil {
		return "", fmt.Errorf("commit message: %w", err)
	}
	return strings.NewReplacer(
		"%sourceName%", src.Name,
		"%sourceCommit%", src.Commit,
		"%sourceBranch%", src.Branch,
	).Replace(msg), nil
}

// Publish pushes the build directory to targetName.
func (p *Publisher) Publish(ctx context.Context, targetName string) error {
	target, ok := p.cfg.Targets[targetName]
	if !ok {
		return fmt.Errorf("unknown publish target %q", targetName)
	}
	if !p.dir.Exists() {
		return fmt.Errorf("build directory %s does not exist", p.dir.Path())
	}

	unlock, err := p.locker.Lock(ctx, "publish:"+targetName, p.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			p.logger.WarnContext(ctx, "failed to release publish lock", "target", targetName, "error", uerr)
		}
	}()

	src, err := p.source(ctx)
	if err != nil {
		return err
	}
	msg, err := p.Message(src)
	if err != nil {
		return err
	}

	var dirty bool
	c := chain.New("buildcontrol:"+targetName, chain.WithLogger(p.logger)).
		When(func() bool { return !p.dir.Sub(".git").Exists() }, "init", p.git("init")).
		Then("add", p.git("add", "-A")).
		Then("status", func(ctx context.Context) error {
			out, err := p.output(ctx, p.dir, "status", "--porcelain")
			dirty = out != ""
			return err
		}).
		When(func() bool { return dirty }, "commit", p.git("commit", "-m", msg)).
		Then("push", p.git("push", target.Remote, "HEAD:"+target.Branch))
	if err := c.Run(ctx); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "published", "target", targetName, "remote", target.Remote, "branch", target.Branch, "version", src.Version)
	return nil
}

func (p *Publisher) source(ctx context.Context) (Source, error) {
	manifest := p.root.Join(p.cfg.PkgFile)
	version, err := ManifestVersion(manifest)
	if err != nil {
		return Source{}, err
	}
	name, _ := ManifestField(manifest, "name")
	commit, err := p.output(ctx, p.root, "rev-parse", "--short", "HEAD")
	if err != nil {
		return Source{}, err
	}
	branch, err := p.output(ctx, p.root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Version: version, Commit: commit, Branch: branch}, nil
}

func (p *Publisher) git(args ...string) chain.StepFunc {
	return func(ctx context.Context) error {
		res, err := p.runner.Run(ctx, Git(p.dir, args...))
		if err != nil {
			return err
		}
		return res.Check()
	}
}

func (p *Publisher) output(ctx context.Context, dir workdir.Dir, args ...string) (string, error) {
	res, err := p.runner.Run(ctx, Git(dir, args...))
	if err != nil {
		return "", err
	}
	if err := res.Check(); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout()), nil
}
