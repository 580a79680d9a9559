package release

import (
	"context"
	"runtime"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
	"github.com/aretw0/gantry/pkg/workdir"
)

// GitBinary is the git executable for the current platform.
func GitBinary() string {
	if runtime.GOOS == "windows" {
		return "git.cmd"
	}
	return "git"
}

// Git builds a git command run in dir.
func Git(dir workdir.Dir, args ...string) domain.Command {
	return domain.Command{Name: "git", Binary: GitBinary(), Args: args, Dir: dir.Path()}
}

// Stage adds files to the git index of the project at root.
// A non-zero git status fails.
func Stage(ctx context.Context, runner ports.ProcessRunner, root workdir.Dir, files []string) error {
	if len(files) == 0 {
		return nil
	}
	res, err := runner.Run(ctx, Git(root, append([]string{"add"}, files...)...))
	if err != nil {
		return err
	}
	return res.Check()
}
