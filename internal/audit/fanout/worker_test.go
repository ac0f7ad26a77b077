package fanout

import (
	"context"
	"sync"
	"testing"
	"time"
)

// syncSink collects lines under a lock, safe for the worker goroutine.
type syncSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *syncSink) AppendLine(_ context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

func (s *syncSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.lines...)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(1)
	ctx := context.Background()

	if err := q.AppendLine(ctx, "first"); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := q.AppendLine(ctx, "second"); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerDrainsQueue(t *testing.T) {
	q := NewQueue(16)
	sink := &syncSink{}
	worker := NewWorker(sink, q.Lines(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	for _, line := range []string{"a", "b", "c"} {
		if err := q.AppendLine(ctx, line); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(sink.all()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("worker did not drain queue, got %v", sink.all())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestWorkerDrainsBufferedLinesOnShutdown(t *testing.T) {
	q := NewQueue(16)
	sink := &syncSink{}
	worker := NewWorker(sink, q.Lines(), nil)

	// Enqueue before the worker starts, then cancel immediately: the
	// buffered lines must still land.
	for _, line := range []string{"a", "b"} {
		if err := q.AppendLine(context.Background(), line); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if got := sink.all(); len(got) != 2 {
		t.Fatalf("expected 2 drained lines, got %v", got)
	}
}
