package maintenance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsDueSweepOnTick(t *testing.T) {
	var ran int32
	sched := NewScheduler(10*time.Millisecond, nil)
	sched.Register("always-due", "* * * * *", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = sched.Run(ctx)

	if atomic.LoadInt32(&ran) == 0 {
		t.Fatal("expected the always-due sweep to run at least once")
	}
}

func TestSchedulerSkipsInvalidCronExpression(t *testing.T) {
	var ran int32
	sched := NewScheduler(10*time.Millisecond, nil)
	sched.Register("broken", "not a cron expression", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = sched.Run(ctx)

	if atomic.LoadInt32(&ran) != 0 {
		t.Fatal("expected invalid cron expression to never run")
	}
}

func TestSchedulerContinuesAfterSweepError(t *testing.T) {
	var calls int32
	sched := NewScheduler(10*time.Millisecond, nil)
	sched.Register("flaky", "* * * * *", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return context.DeadlineExceeded
	})

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	_ = sched.Run(ctx)

	if atomic.LoadInt32(&calls) == 0 {
		t.Fatal("expected sweep to have run despite returning an error")
	}
}
