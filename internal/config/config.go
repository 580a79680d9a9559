// Package config loads gantry.yaml and the optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the project configuration file looked up in the project root.
const DefaultFile = "gantry.yaml"

// Config is the project configuration. Every field has a working default.
type Config struct {
	Demo     DemoConfig            `yaml:"demo"`
	Fixtures FixturesConfig        `yaml:"fixtures"`
	Test     TestConfig            `yaml:"test"`
	Deps     DepsConfig            `yaml:"deps"`
	Release  ReleaseConfig         `yaml:"release"`
	Lock     LockConfig            `yaml:"lock"`
	Tasks    map[string]TaskConfig `yaml:"tasks"`
	// Commands points at an optional commands.yaml overriding built-in commands.
	Commands string `yaml:"commands"`
}

// DemoConfig drives the demo lifecycle.
type DemoConfig struct {
	Dir      string   `yaml:"dir"`
	Preserve []string `yaml:"preserve"`
	// Generator is the scaffolder generator name.
	Generator string `yaml:"generator"`
	// Scaffold is the command line that runs the generator inside the demo dir.
	Scaffold []string `yaml:"scaffold"`
	Build    []string `yaml:"build"`
	Deploy   []string `yaml:"deploy"`
}

// FixturesConfig drives the fixture manager.
type FixturesConfig struct {
	Dir           string `yaml:"dir"`
	AppTemplate   string `yaml:"app_template"`
	BowerTemplate string `yaml:"bower_template"`
	// CredentialEnv names the variable whose presence skips the webdriver update.
	CredentialEnv string `yaml:"credential_env"`
}

// TestConfig is the test suite command.
type TestConfig struct {
	Command []string `yaml:"command"`
	// Src are glob patterns expanded and appended to Command.
	Src []string `yaml:"src"`
}

// DepsConfig is the dependency check command.
type DepsConfig struct {
	Command []string `yaml:"command"`
}

// ReleaseConfig holds publish settings.
type ReleaseConfig struct {
	PkgFile string                   `yaml:"pkg_file"`
	Message string                   `yaml:"message"`
	Targets map[string]PublishTarget `yaml:"targets"`
}

// PublishTarget is one buildcontrol destination.
type PublishTarget struct {
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
}

// LockConfig selects the publish lock backend. An empty Redis address means in-process.
type LockConfig struct {
	Redis  string        `yaml:"redis"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// TaskConfig holds per task option overrides.
type TaskConfig struct {
	Options map[string]any `yaml:"options"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Demo: DemoConfig{
			Dir:       "demo",
			Preserve:  []string{"readme.md", "node_modules", ".git", "dist"},
			Generator: "angular-fullstack:app",
			Scaffold:  []string{"yo", "angular-fullstack", "--skip-install"},
			Build:     []string{"grunt"},
			Deploy:    []string{"grunt", "buildcontrol:heroku"},
		},
		Fixtures: FixturesConfig{
			Dir:           "test/fixtures",
			AppTemplate:   "app/templates/_package.json",
			BowerTemplate: "app/templates/_bower.json",
			CredentialEnv: "SAUCE_USERNAME",
		},
		Test: TestConfig{
			Command: []string{"mocha", "--reporter", "spec", "--timeout", "120000"},
			Src:     []string{"test/*.js"},
		},
		Deps: DepsConfig{
			Command: []string{"npm", "outdated", "--json"},
		},
		Release: ReleaseConfig{
			PkgFile: "package.json",
			Message: "Built using Angular Fullstack v<%= pkg.version %> from commit %sourceCommit%",
			Targets: map[string]PublishTarget{
				"release": {Remote: "origin", Branch: "master"},
				"heroku":  {Remote: "heroku", Branch: "master"},
			},
		},
		Lock: LockConfig{
			Prefix: "gantry:",
			TTL:    5 * time.Minute,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// fill restores defaults for fields a file explicitly blanked.
func (c *Config) fill() {
	def := Default()
	if c.Demo.Dir == "" {
		c.Demo.Dir = def.Demo.Dir
	}
	if c.Demo.Preserve == nil {
		c.Demo.Preserve = def.Demo.Preserve
	}
	if len(c.Demo.Scaffold) == 0 {
		c.Demo.Scaffold = def.Demo.Scaffold
	}
	if len(c.Demo.Build) == 0 {
		c.Demo.Build = def.Demo.Build
	}
	if len(c.Demo.Deploy) == 0 {
		c.Demo.Deploy = def.Demo.Deploy
	}
	if len(c.Test.Command) == 0 {
		c.Test.Command = def.Test.Command
	}
	if len(c.Deps.Command) == 0 {
		c.Deps.Command = def.Deps.Command
	}
	if c.Fixtures.Dir == "" {
		c.Fixtures.Dir = def.Fixtures.Dir
	}
	if c.Fixtures.CredentialEnv == "" {
		c.Fixtures.CredentialEnv = def.Fixtures.CredentialEnv
	}
	if c.Release.PkgFile == "" {
		c.Release.PkgFile = def.Release.PkgFile
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = def.Lock.TTL
	}
}

// TaskOptions flattens the per task overrides for the graph runner.
func (c Config) TaskOptions() map[string]map[string]any {
	out := make(map[string]map[string]any, len(c.Tasks))
	for name, t := range c.Tasks {
		if len(t.Options) > 0 {
			out[name] = t.Options
		}
	}
	return out
}

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
