package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// ProcessRunner launches external commands.
//
// Implementations launch exactly one process per call. A failure to launch is a
// *domain.SpawnError; a non-zero exit status is reported in the Result and is
// never an error by itself.
type ProcessRunner interface {
	// Run blocks until the process exits and returns its buffered output.
	Run(ctx context.Context, cmd domain.Command) (*domain.Result, error)
	// Stream blocks until the process exits, delivering output lines as they arrive.
	Stream(ctx context.Context, cmd domain.Command, onLine func(domain.OutputLine)) (*domain.Result, error)
}
