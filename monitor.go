package snapshotjanitor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultInitialPollInterval = 1 * time.Second
	DefaultMaxPollInterval     = 10 * time.Second
)

// TaskResult is the terminal outcome of a monitored task. Callers get the
// failure branch as data, not as an error; AwaitCompletion only returns an
// error when the task's state could not be observed at all.
type TaskResult struct {
	Failed bool
	Detail string
}

// TaskMonitor polls an asynchronous endpoint task until it reaches a
// terminal state, sleeping between polls with capped exponential backoff:
// InitialInterval, doubling after each non-terminal poll, never exceeding
// MaxInterval.
//
// No overall deadline is imposed; a stuck remote task blocks until the
// caller's context is cancelled.
type TaskMonitor struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Sleep, when non-nil, replaces the real timer. Tests use it to record
	// the backoff sequence.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewTaskMonitor() *TaskMonitor {
	return &TaskMonitor{
		InitialInterval: DefaultInitialPollInterval,
		MaxInterval:     DefaultMaxPollInterval,
	}
}

// AwaitCompletion blocks until the task reports success or error. Non-poll
// failures (transport errors, cancellation) are returned as an error; the
// task's own terminal error state comes back as a failed TaskResult carrying
// the endpoint-reported detail.
func (m *TaskMonitor) AwaitCompletion(ctx context.Context, task Task) (TaskResult, error) {
	interval := m.InitialInterval
	if interval <= 0 {
		interval = DefaultInitialPollInterval
	}
	maxInterval := m.MaxInterval
	if maxInterval <= 0 {
		maxInterval = DefaultMaxPollInterval
	}

	for {
		status, err := task.Status(ctx)
		if err != nil {
			return TaskResult{}, errors.Wrap(err, "couldn't poll task status")
		}

		switch status.State {
		case TaskStateSuccess:
			return TaskResult{}, nil
		case TaskStateError:
			return TaskResult{Failed: true, Detail: status.Detail}, nil
		}

		if err := m.sleep(ctx, interval); err != nil {
			return TaskResult{}, err
		}

		interval *= 2
		if interval > maxInterval {
			interval = maxInterval
		}
	}
}

func (m *TaskMonitor) sleep(ctx context.Context, d time.Duration) error {
	if m.Sleep != nil {
		return m.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "interrupted while waiting on task")
	case <-timer.C:
		return nil
	}
}
