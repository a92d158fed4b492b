package daemon

import (
	"context"
	"log/slog"
)

// Pings are the channels of an X event loop started with MainPing. The loop
// sends on Before, handles one event, then sends on After.
type Pings struct {
	Before <-chan struct{}
	After  <-chan struct{}
	Quit   <-chan struct{}
}

// Dispatcher runs posted functions and X event handling on one goroutine,
// so overlay state is never touched concurrently.
type Dispatcher struct {
	posts   chan func()
	stopped chan struct{}
	logger  *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		posts:   make(chan func(), 64),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Post queues fn to run on the dispatcher goroutine. It reports false once
// the dispatcher has stopped.
func (d *Dispatcher) Post(fn func()) bool {
	select {
	case <-d.stopped:
		return false
	default:
	}
	select {
	case d.posts <- fn:
		return true
	case <-d.stopped:
		return false
	}
}

// Run serves posted functions and event-loop turns until ctx is done or the
// event loop quits. Posted functions still queued when Run returns are
// dropped.
func (d *Dispatcher) Run(ctx context.Context, pings Pings) {
	defer close(d.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-pings.Quit:
			d.logger.Info("event loop stopped")
			return
		case <-pings.Before:
			// The event loop handles one event now; wait until it is done.
			select {
			case <-pings.After:
			case <-pings.Quit:
				return
			}
		case fn := <-d.posts:
			d.run(fn)
		}
	}
}

func (d *Dispatcher) run(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("dispatcher panic recovered", "error", err)
		}
	}()
	fn()
}
