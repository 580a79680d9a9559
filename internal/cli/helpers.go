package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/presentation/tui"
	"github.com/aretw0/gantry/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger from the --log-level and
// --verbose flags. Verbose always means debug.
func createLogger(level string, verbose bool) (*slog.Logger, error) {
	if verbose {
		return logging.New(slog.LevelDebug), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// createProgressHooks prints a header for every task, like the classic
// build tools do.
func createProgressHooks(printer *tui.Printer) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(_ context.Context, e *domain.TaskEvent) {
			name := e.Task
			if e.Target != "" {
				name += ":" + e.Target
			}
			printer.Header("Running %q task", name)
		},
	}
}

// reportFailure prints the failure reason. An interruption is reported as such.
func reportFailure(printer *tui.Printer, err error, sig os.Signal) {
	if sig != nil {
		printer.Error("interrupted by " + sig.String())
		return
	}
	printer.Error(domain.Reason(err))
}
