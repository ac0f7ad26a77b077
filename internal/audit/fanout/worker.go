package fanout

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ErrQueueFull reports a dropped line: the buffer is bounded and appends never
// block the request path.
var ErrQueueFull = errors.New("fanout: queue full, line dropped")

// Queue is a bounded in-process LineSink that hands lines to a Worker. It
// decouples the mutating request from the external sink's latency.
type Queue struct {
	ch chan string
}

// NewQueue builds a queue holding at most size lines.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan string, size)}
}

// AppendLine enqueues the line without blocking. A full buffer drops the line.
func (q *Queue) AppendLine(_ context.Context, line string) error {
	select {
	case q.ch <- line:
		return nil
	default:
		return ErrQueueFull
	}
}

// Lines exposes the drain side for a Worker.
func (q *Queue) Lines() <-chan string {
	return q.ch
}

// Worker drains queued lines into the external sink on its own goroutine.
// Append failures are logged and the line is abandoned; the sink is
// best-effort end to end.
type Worker struct {
	sink   LineSink
	inbox  <-chan string
	logger *slog.Logger
}

// NewWorker builds a worker draining inbox into sink.
func NewWorker(sink LineSink, inbox <-chan string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes lines until ctx is cancelled, then drains whatever is still
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case line := <-w.inbox:
			w.append(ctx, line)
		}
	}
}

func (w *Worker) drain() {
	// Shutdown path: appends get a fresh context since the run context is
	// already cancelled.
	ctx := context.Background()
	for {
		select {
		case line := <-w.inbox:
			w.append(ctx, line)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, line string) {
	if err := w.sink.AppendLine(ctx, line); err != nil {
		w.logger.WarnContext(ctx, "sink append failed in worker", "error", err)
	}
}
