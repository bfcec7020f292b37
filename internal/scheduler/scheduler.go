package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc runs once per interval. Errors are logged, never fatal to the loop.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune a ticker loop.
type Options struct {
	Name         string
	Interval     time.Duration
	Align        bool // align ticks to wall-clock multiples of Interval
	StartupDelay time.Duration
}

// Scheduler drives one periodic job until its context is cancelled.
// Ticks for the same scheduler never overlap: the next wait starts only
// after the tick function returns.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Str("job", opts.Name).Logger(),
	}
}

// Run blocks, invoking the tick function on every interval until ctx is
// cancelled, then returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	next := s.next(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.next(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case at := <-timer.C:
			timer.Stop()
			if err := tick(ctx, at.UTC()); err != nil {
				s.logger.Error().Err(err).Time("tick", next).Msg("tick execution failed")
			}
		}

		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) next(now time.Time) time.Time {
	if !s.opts.Align {
		return now.Add(s.opts.Interval)
	}
	aligned := now.Truncate(s.opts.Interval)
	if !aligned.After(now) {
		aligned = aligned.Add(s.opts.Interval)
	}
	return aligned
}
