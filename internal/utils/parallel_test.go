package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunParallelTasks(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	tasks := []ParallelTask{
		func(ctx context.Context) error { ran.Add(1); return nil },
		func(ctx context.Context) error { ran.Add(1); return boom },
		func(ctx context.Context) error { ran.Add(1); return nil },
	}

	errs := RunParallelTasks(context.Background(), 2, tasks)
	if ran.Load() != 3 {
		t.Fatalf("ran %d tasks, want 3", ran.Load())
	}
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
	if !errors.Is(errs[1], boom) {
		t.Errorf("errs[1] = %v, want boom", errs[1])
	}
	if !errors.Is(FirstError(errs), boom) {
		t.Errorf("FirstError = %v, want boom", FirstError(errs))
	}
}

func TestRunParallelTasksLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	block := make(chan struct{})

	tasks := make([]ParallelTask, 6)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-block
			inFlight.Add(-1)
			return nil
		}
	}

	done := make(chan []error)
	go func() { done <- RunParallelTasks(context.Background(), 2, tasks) }()
	close(block)
	<-done

	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d, want <= 2", peak.Load())
	}
}

func TestFirstErrorNil(t *testing.T) {
	if err := FirstError([]error{nil, nil}); err != nil {
		t.Errorf("FirstError = %v, want nil", err)
	}
}
