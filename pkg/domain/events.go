package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTaskStart     EventType = "task_start"
	EventTaskFinish    EventType = "task_finish"
	EventProcessStart  EventType = "process_start"
	EventProcessFinish EventType = "process_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// TaskEvent represents entry into or exit from a task.
type TaskEvent struct {
	EventBase
	Task     string        `json:"task"`
	Target   string        `json:"target,omitempty"`
	Depth    int           `json:"depth"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ProcessEvent represents an external process launch or exit.
type ProcessEvent struct {
	EventBase
	Command  Command       `json:"command"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for orchestration observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnTaskStart     func(context.Context, *TaskEvent)
	OnTaskFinish    func(context.Context, *TaskEvent)
	OnProcessStart  func(context.Context, *ProcessEvent)
	OnProcessFinish func(context.Context, *ProcessEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskStart:     mergeTask(h.OnTaskStart, other.OnTaskStart),
		OnTaskFinish:    mergeTask(h.OnTaskFinish, other.OnTaskFinish),
		OnProcessStart:  mergeProcess(h.OnProcessStart, other.OnProcessStart),
		OnProcessFinish: mergeProcess(h.OnProcessFinish, other.OnProcessFinish),
	}
}

func mergeTask(a, b func(context.Context, *TaskEvent)) func(context.Context, *TaskEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TaskEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func mergeProcess(a, b func(context.Context, *ProcessEvent)) func(context.Context, *ProcessEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ProcessEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
