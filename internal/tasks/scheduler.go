package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/shared"
)

const DefaultCheckEvery = 15 * time.Minute

// State is a scheduler state.
type State int

const (
	StateRunningCycle State = iota
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateRunningCycle:
		return "running_cycle"
	case StateWaiting:
		return "waiting"
	default:
		return ""
	}
}

// Clock supplies wall time and interruptible sleep.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Cycler runs one sync cycle. [PlaylistEngine] implements it.
type Cycler interface {
	RunCycle(ctx context.Context, progress chan<- ProgressUpdate) (*CycleReport, error)
}

// SchedulerOpts configures a [Scheduler].
type SchedulerOpts struct {
	Interval   time.Duration         // Time between cycle starts
	CheckEvery time.Duration         // Longest single sleep while waiting (default: 15m)
	FailFast   bool                  // Stop on any cycle error instead of waiting for the next cycle
	Progress   chan<- ProgressUpdate // Optional; forwarded to every cycle
}

// Scheduler alternates between running a cycle and waiting for the next one.
//
// Waiting happens in CheckEvery steps, re-reading the clock after each, so a suspended machine
// or an adjusted clock delays the next cycle by at most one step.
type Scheduler struct {
	cycler Cycler
	clock  Clock
	logger *log.Logger
	opts   SchedulerOpts

	// OnState, when set, is called on every state transition with the time the new state was entered.
	OnState func(state State, at time.Time)
}

// NewScheduler creates a [Scheduler]. A nil clock uses the system clock.
func NewScheduler(cycler Cycler, clock Clock, logger *log.Logger, opts SchedulerOpts) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.CheckEvery <= 0 {
		opts.CheckEvery = DefaultCheckEvery
	}
	return &Scheduler{cycler: cycler, clock: clock, logger: logger, opts: opts}
}

// Run loops until ctx is canceled, returning nil in that case.
//
// Authentication failures always end the loop with an error. Other cycle errors are logged and the
// scheduler waits for the next cycle, unless FailFast is set.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.enter(StateRunningCycle)
		report, err := s.cycler.RunCycle(ctx, s.opts.Progress)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if shared.IsAuthError(err) || s.opts.FailFast {
				return err
			}
			s.logger.Error("sync cycle failed", "error", err)
		} else if report != nil && report.HasErrors() && s.opts.FailFast {
			return firstError(report)
		}

		next := s.clock.Now().Add(s.opts.Interval)
		s.enter(StateWaiting)
		s.logger.Info("waiting for next cycle", "next", next.Format(time.RFC3339))
		if err := s.wait(ctx, next); err != nil {
			return nil
		}
	}
}

// wait sleeps until the clock reaches next.
func (s *Scheduler) wait(ctx context.Context, next time.Time) error {
	for {
		remaining := next.Sub(s.clock.Now())
		if remaining <= 0 {
			return nil
		}
		if err := s.clock.Sleep(ctx, min(remaining, s.opts.CheckEvery)); err != nil {
			return err
		}
	}
}

func (s *Scheduler) enter(state State) {
	s.logger.Debug("scheduler state", "state", state)
	if s.OnState != nil {
		s.OnState(state, s.clock.Now())
	}
}

// firstError returns the first playlist error in report, or a summary error when only downloads failed.
func firstError(report *CycleReport) error {
	for _, p := range report.Playlists {
		if p.Err != nil {
			return p.Err
		}
	}
	for _, p := range report.Playlists {
		if len(p.Failed) > 0 {
			return p.Failed[0].Err
		}
	}
	return errors.New("sync cycle reported errors")
}
