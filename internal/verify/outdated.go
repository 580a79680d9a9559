package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/tidwall/gjson"
)

// Package is one outdated dependency.
type Package struct {
	Name    string
	Current string
	Wanted  string
	Latest  string
}

// Outdated checks manifests for dependencies with newer releases.
type Outdated struct {
	command []string
	runner  ports.ProcessRunner
	logger  *slog.Logger
}

// NewOutdated creates a checker running command in the manifest directory.
func NewOutdated(command []string, runner ports.ProcessRunner, logger *slog.Logger) *Outdated {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Outdated{command: command, runner: runner, logger: logger}
}

// Check lists the outdated dependencies of the manifest in dir.
// The exit status is ignored: npm reports outdated packages with status 1.
func (o *Outdated) Check(ctx context.Context, dir workdir.Dir) ([]Package, error) {
	if len(o.command) == 0 {
		return nil, fmt.Errorf("outdated command is not configured")
	}
	cmd := domain.Command{Name: "deps.outdated", Binary: o.command[0], Args: o.command[1:], Dir: dir.Path()}
	res, err := o.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	pkgs, err := ParseOutdated(res.Stdout())
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		o.logger.InfoContext(ctx, "all dependencies up to date", "dir", dir.Path())
	}
	for _, p := range pkgs {
		o.logger.WarnContext(ctx, "outdated dependency", "package", p.Name, "current", p.Current, "wanted", p.Wanted, "latest", p.Latest, "dir", dir.Path())
	}
	return pkgs, nil
}

// ParseOutdated reads the JSON report of `npm outdated --json`.
// Empty output means nothing is outdated.
func ParseOutdated(out string) ([]Package, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("unreadable outdated report")
	}
	var pkgs []Package
	gjson.Parse(out).ForEach(func(key, value gjson.Result) bool {
		pkgs = append(pkgs, Package{
			Name:    key.String(),
			Current: value.Get("current").String(),
			Wanted:  value.Get("wanted").String(),
			Latest:  value.Get("latest").String(),
		})
		return true
	})
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}
