package bgtask

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrackerGoRemovesTaskOnSuccess(t *testing.T) {
	tr := NewTracker(nil)
	done := make(chan struct{})
	tr.Go(context.Background(), "journal-sync", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	tr.Wait()
	if tr.Count() != 0 {
		t.Fatalf("expected 0 tracked tasks after completion, got %d", tr.Count())
	}
}

func TestTrackerGoRecoversPanicAndStillRemoves(t *testing.T) {
	tr := NewTracker(nil)
	tr.Go(context.Background(), "distill", func(ctx context.Context) error {
		panic("boom")
	})
	tr.Wait()
	if tr.Count() != 0 {
		t.Fatalf("expected panic task to self-remove, got count %d", tr.Count())
	}
}

func TestTrackerGoLogsErrorWithoutPanicking(t *testing.T) {
	tr := NewTracker(nil)
	tr.Go(context.Background(), "reflect", func(ctx context.Context) error {
		return errors.New("synthesis failed")
	})
	tr.Wait()
	if tr.Count() != 0 {
		t.Fatalf("expected errored task to self-remove, got count %d", tr.Count())
	}
}

func TestTrackerCancelAllStopsRunningTasks(t *testing.T) {
	tr := NewTracker(nil)
	started := make(chan struct{})
	tr.Go(context.Background(), "long-running", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	tr.CancelAll()
	tr.Wait()
	if tr.Count() != 0 {
		t.Fatalf("expected cancelled task to self-remove, got count %d", tr.Count())
	}
}

func TestTrackerCancelSingleHandle(t *testing.T) {
	tr := NewTracker(nil)
	started := make(chan struct{})
	h := tr.Go(context.Background(), "cancellable", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	tr.Cancel(h)
	tr.Wait()
	if tr.Count() != 0 {
		t.Fatalf("expected 0 tasks after cancel, got %d", tr.Count())
	}
}
