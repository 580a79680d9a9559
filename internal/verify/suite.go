// Package verify runs the generator test suite and the dependency freshness check.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/bmatcuk/doublestar/v4"
)

// Suite runs the configured test command over the test sources.
type Suite struct {
	root   workdir.Dir
	cfg    config.TestConfig
	runner ports.ProcessRunner
	logger *slog.Logger
}

// NewSuite creates a test suite runner. A nil logger means no logging.
func NewSuite(root workdir.Dir, cfg config.TestConfig, runner ports.ProcessRunner, logger *slog.Logger) *Suite {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Suite{root: root, cfg: cfg, runner: runner, logger: logger}
}

// Sources expands the source patterns relative to the project root,
// sorted and without duplicates.
func (s *Suite) Sources() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	fsys := os.DirFS(s.root.Path())
	for _, pattern := range s.cfg.Src {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("test source pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Run executes the suite with the extra environment env. Output is streamed
// to the logger; a failing suite is an *domain.ExitError.
func (s *Suite) Run(ctx context.Context, env []string) error {
	if len(s.cfg.Command) == 0 {
		return fmt.Errorf("test command is not configured")
	}
	sources, err := s.Sources()
	if err != nil {
		return err
	}
	cmd := domain.Command{
		Name:   "test.suite",
		Binary: s.cfg.Command[0],
		Args:   append(append([]string(nil), s.cfg.Command[1:]...), sources...),
		Dir:    s.root.Path(),
	}.WithEnv(env...)

	res, err := s.runner.Stream(ctx, cmd, func(line domain.OutputLine) {
		s.logger.InfoContext(ctx, line.Text, "stream", line.Stream)
	})
	if err != nil {
		return err
	}
	return res.Check()
}
