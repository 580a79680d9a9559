package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/mitchellh/mapstructure"
)

// Invocation is what an action sees of the run it belongs to.
type Invocation struct {
	// Name is the registered task name, without target.
	Name   string
	Target string
	Args   []string
	Dir    workdir.Dir
	Logger *slog.Logger
	Env    *Env
	RunID  string
	Depth  int

	task Task
	run  *execution
	path []string
}

// Options decodes the task options into dst. Declared defaults are overlaid
// with configured overrides for the task, then for "task:target".
func (inv *Invocation) Options(dst any) error {
	merged := make(map[string]any, len(inv.task.Options))
	for k, v := range inv.task.Options {
		merged[k] = v
	}
	for _, key := range inv.overrideKeys() {
		for k, v := range inv.run.runner.overrides[key] {
			merged[k] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("options for %s: %w", inv.Name, err)
	}
	if err := decoder.Decode(merged); err != nil {
		return fmt.Errorf("options for %s: %w", inv.Name, err)
	}
	return nil
}

func (inv *Invocation) overrideKeys() []string {
	if inv.Target == "" {
		return []string{inv.Name}
	}
	return []string{inv.Name, inv.Name + ":" + inv.Target}
}

// Run queues further tasks from inside an action. They run immediately and
// sequentially; the first failure is returned.
func (inv *Invocation) Run(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := inv.run.invoke(ctx, name, inv.path, inv.Name, inv.Depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Label is the invoked name including target.
func (inv *Invocation) Label() string {
	if inv.Target == "" {
		return inv.Name
	}
	return inv.Name + ":" + inv.Target
}
