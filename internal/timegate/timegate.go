package timegate

import (
	"context"
	"time"

	"github.com/example/aimharder-scheduler/internal/logger"
)

// MaxStep bounds a single sleep so the remaining time is recomputed from the
// clock at least every 30s (DST shifts and clock adjustments are picked up).
const MaxStep = 30 * time.Second

type State int

const (
	Waiting State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "waiting"
}

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gate holds the target instant for one run.
type Gate struct {
	Target time.Time
}

// NewGate targets hour:minute:00 on now's calendar day in loc.
func NewGate(now time.Time, hour, minute int, loc *time.Location) Gate {
	local := now.In(loc)
	return Gate{Target: time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)}
}

// Step reports the state at now and, while Waiting, how long to sleep next.
func (g Gate) Step(now time.Time) (State, time.Duration) {
	remaining := g.Target.Sub(now)
	if remaining <= 0 {
		return Ready, 0
	}
	return Waiting, min(MaxStep, remaining)
}

// Await blocks until hour:minute in loc, or returns immediately when skip is
// set or the target is already past.
func Await(ctx context.Context, clock Clock, hour, minute int, loc *time.Location, skip bool, log *logger.Logger) error {
	if skip {
		log.Infow("skipping wait")
		return nil
	}
	g := NewGate(clock.Now(), hour, minute, loc)

	state, _ := g.Step(clock.Now())
	if state == Ready {
		log.Infow("target time already passed, proceeding", "target", g.Target.Format("15:04"))
		return nil
	}
	log.Infow("waiting for target time", "now", clock.Now().In(loc).Format("15:04:05"), "target", g.Target.Format("15:04:05"))

	for {
		state, d := g.Step(clock.Now())
		if state == Ready {
			log.Infow("target time reached")
			return nil
		}
		if remaining := g.Target.Sub(clock.Now()); remaining > MaxStep {
			log.Debugw("waiting", "remaining", remaining.Round(time.Second).String())
		}
		if err := clock.Sleep(ctx, d); err != nil {
			return err
		}
	}
}
