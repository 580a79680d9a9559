package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/workdir"
)

// ScaffoldRequest is the structured option set and the mocked interactive
// answers handed to the scaffolding engine.
type ScaffoldRequest struct {
	Generator string
	Options   map[string]any
	Answers   map[string]any
}

// Scaffolder invokes the external scaffolding engine inside dir.
// Nothing is returned beyond completion: a nil error means the engine finished.
type Scaffolder interface {
	Scaffold(ctx context.Context, dir workdir.Dir, req ScaffoldRequest) error
}
