// Package chain composes asynchronous steps into one sequential unit of work.
//
// Steps run strictly in order; each settles before the next begins. The first
// failure short-circuits the remaining steps and is routed to the recovery
// handler, if any. The finalizer runs exactly once after either outcome and
// before Run returns.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
)

// StepFunc is one unit of asynchronous work.
type StepFunc func(ctx context.Context) error

// RecoverFunc receives the failure of a step. Its return value becomes
// the outcome of the chain: nil swallows the failure.
type RecoverFunc func(ctx context.Context, err error) error

// FinalizeFunc always runs once the chain settled.
type FinalizeFunc func(ctx context.Context) error

type step struct {
	name string
	fn   StepFunc
}

// Chain is an ordered list of steps with optional recovery and finalization.
// A Chain is built once per invocation and is not safe for concurrent Run calls.
type Chain struct {
	name     string
	steps    []step
	recover  RecoverFunc
	finalize FinalizeFunc
	logger   *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// New creates an empty chain. The name prefixes failure messages.
func New(name string, opts ...Option) *Chain {
	c := &Chain{name: name, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Then appends a step.
func (c *Chain) Then(name string, fn StepFunc) *Chain {
	c.steps = append(c.steps, step{name: name, fn: fn})
	return c
}

// When appends a step that only runs when cond holds at the time the step is reached.
func (c *Chain) When(cond func() bool, name string, fn StepFunc) *Chain {
	return c.Then(name, func(ctx context.Context) error {
		if !cond() {
			c.logger.DebugContext(ctx, "step skipped", "chain", c.name, "step", name)
			return nil
		}
		return fn(ctx)
	})
}

// OnFailure installs the recovery handler, replacing any previous one.
func (c *Chain) OnFailure(fn RecoverFunc) *Chain {
	c.recover = fn
	return c
}

// Always installs the finalizer, replacing any previous one.
func (c *Chain) Always(fn FinalizeFunc) *Chain {
	c.finalize = fn
	return c
}

// Len returns the number of steps.
func (c *Chain) Len() int { return len(c.steps) }

// Run executes the chain and returns its outcome.
func (c *Chain) Run(ctx context.Context) (err error) {
	defer func() {
		if c.finalize == nil {
			return
		}
		ferr := c.safeFinalize(ctx)
		switch {
		case ferr == nil:
		case err == nil:
			err = fmt.Errorf("%s: finalizer: %w", c.label(), ferr)
		default:
			err = errors.Join(err, fmt.Errorf("%s: finalizer: %w", c.label(), ferr))
		}
	}()

	for i, s := range c.steps {
		start := time.Now()
		serr := c.safeStep(ctx, s)
		c.logger.DebugContext(ctx, "step settled", "chain", c.name, "step", s.name, "index", i, "duration", time.Since(start), "error", serr)
		if serr == nil {
			continue
		}
		failure := &domain.ChainFailure{Chain: c.name, Step: s.name, Index: i, Err: serr}
		if c.recover != nil {
			return c.safeRecover(ctx, failure)
		}
		return failure
	}
	return nil
}

// Future is the pending outcome of a chain started with Go.
type Future struct {
	done chan struct{}
	err  error
}

// Go starts the chain in its own goroutine and returns immediately.
func (c *Chain) Go(ctx context.Context) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.err = c.Run(ctx)
	}()
	return f
}

// Done is closed once the chain settled, finalizer included.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the chain settled and returns its outcome.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

func (c *Chain) label() string {
	if c.name == "" {
		return "chain"
	}
	return c.name
}

// safeStep converts a panicking step into a failure so the finalizer
// still runs and the remaining steps are skipped.
func (c *Chain) safeStep(ctx context.Context, s step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}

func (c *Chain) safeRecover(ctx context.Context, failure *domain.ChainFailure) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(failure, fmt.Errorf("recovery panic: %v", r))
		}
	}()
	return c.recover(ctx, failure)
}

func (c *Chain) safeFinalize(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.finalize(ctx)
}
