// Package fixtures regenerates and installs the dependency fixtures the
// generator test suite runs against.
package fixtures

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
	"github.com/aretw0/gantry/pkg/template"
	"github.com/aretw0/gantry/pkg/workdir"
)

// NeutralName replaces the application name in every fixture manifest.
const NeutralName = "tempApp"

// Fixture file names written to the fixtures directory.
const (
	PackageFile = "package.json"
	BowerFile   = "bower.json"
)

// Feature flags known to the manifest templates. All are bound to false
// so conditional dependency blocks are dropped.
var featureFlags = []string{
	"js", "babel", "coffee", "html", "jade",
	"css", "sass", "less", "stylus",
	"ngroute", "uirouter", "bootstrap", "uibootstrap",
	"mongoose", "auth", "oauth", "googleAuth", "facebookAuth", "twitterAuth",
	"socketio", "jasmine", "mocha",
}

// Built-in install commands, keyed by the name a commands.yaml entry overrides.
var (
	CmdNpmInstall       = domain.Command{Name: "fixtures.npm", Binary: "npm", Args: []string{"install", "--quiet"}}
	CmdBowerInstall     = domain.Command{Name: "fixtures.bower", Binary: "bower", Args: []string{"install"}}
	CmdUpdateWebdriver  = domain.Command{Name: "fixtures.webdriver", Binary: "npm", Args: []string{"run", "update-webdriver"}}
	defaultInstallSteps = []domain.Command{CmdNpmInstall, CmdBowerInstall, CmdUpdateWebdriver}
)

// Manager keeps the fixture manifests in sync with the generator templates.
type Manager struct {
	root      workdir.Dir
	cfg       config.FixturesConfig
	runner    ports.ProcessRunner
	logger    *slog.Logger
	reducer   *template.Reducer
	lookupEnv func(string) (string, bool)
	commands  map[string]domain.Command
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLookupEnv replaces the environment lookup used for the credential check.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(m *Manager) {
		m.lookupEnv = fn
	}
}

// WithCommands overrides built-in commands by name.
func WithCommands(cmds map[string]domain.Command) Option {
	return func(m *Manager) {
		m.commands = cmds
	}
}

// NewManager creates a fixture manager rooted at the generator project.
func NewManager(root workdir.Dir, cfg config.FixturesConfig, runner ports.ProcessRunner, opts ...Option) *Manager {
	m := &Manager{
		root:      root,
		cfg:       cfg,
		runner:    runner,
		logger:    logging.NewNop(),
		reducer:   template.New(template.WithField("name", NeutralName)),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the fixtures directory.
func (m *Manager) Dir() workdir.Dir {
	return m.root.Sub(m.cfg.Dir)
}

// NeutralBindings returns the binding set used to reduce manifest templates.
func NeutralBindings() template.Bindings {
	filters := make(map[string]any, len(featureFlags))
	for _, f := range featureFlags {
		filters[f] = false
	}
	return template.Bindings{
		"name":    NeutralName,
		"appname": NeutralName,
		"filters": filters,
	}
}

// UpdateFixtures rewrites both fixture manifests from their templates.
// Either both files are written or the first failure is returned.
func (m *Manager) UpdateFixtures(ctx context.Context) error {
	pkg, err := m.reduce(m.cfg.AppTemplate)
	if err != nil {
		return err
	}
	bower, err := m.reduce(m.cfg.BowerTemplate)
	if err != nil {
		return err
	}

	dir := m.Dir()
	if err := dir.Ensure(); err != nil {
		return err
	}
	if err := workdir.WriteFile(dir.Join(PackageFile), []byte(pkg), 0o644); err != nil {
		return err
	}
	if err := workdir.WriteFile(dir.Join(BowerFile), []byte(bower), 0o644); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "fixtures updated", "dir", dir.Path())
	return nil
}

func (m *Manager) reduce(rel string) (string, error) {
	path := m.root.Join(rel)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", rel, err)
	}
	out, err := m.reducer.Reduce(string(raw), NeutralBindings())
	if err != nil {
		return "", fmt.Errorf("reduce %s: %w", rel, err)
	}
	return out, nil
}

// InstallFixtures installs npm and bower dependencies in the fixtures
// directory, then refreshes the webdriver unless remote browser credentials
// are configured.
//
// Exit codes are logged, not checked: a failed install still lets the test
// suite run and report. A command that cannot be spawned fails the chain.
func (m *Manager) InstallFixtures(ctx context.Context) error {
	dir := m.Dir()
	c := chain.New("installFixtures", chain.WithLogger(m.logger))
	for _, cmd := range defaultInstallSteps {
		cmd := m.command(cmd).WithDir(dir.Path())
		if cmd.Name == CmdUpdateWebdriver.Name {
			c.When(m.needsWebdriver, cmd.Name, m.exec(cmd))
			continue
		}
		c.Then(cmd.Name, m.exec(cmd))
	}
	return c.Run(ctx)
}

func (m *Manager) needsWebdriver() bool {
	v, ok := m.lookupEnv(m.cfg.CredentialEnv)
	if ok && v != "" {
		m.logger.Info("remote browser credentials set, skipping webdriver update", "env", m.cfg.CredentialEnv)
		return false
	}
	return true
}

func (m *Manager) exec(cmd domain.Command) chain.StepFunc {
	return func(ctx context.Context) error {
		m.logger.InfoContext(ctx, "running", "command", cmd.String())
		res, err := m.runner.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if !res.Success() {
			m.logger.WarnContext(ctx, "command exited with non-zero status", "command", cmd.String(), "exit_code", res.ExitCode, "stderr", res.Stderr())
		}
		return nil
	}
}

func (m *Manager) command(def domain.Command) domain.Command {
	if override, ok := m.commands[def.Name]; ok {
		override.Name = def.Name
		return override
	}
	return def
}
