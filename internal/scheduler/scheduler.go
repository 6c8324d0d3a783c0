package scheduler

import (
	"errors"
	"time"

	"github.com/fanctrl/fanctrl/internal/ui"
)

var (
	// ErrNotScheduled is returned by WasPassed when SetNext has never been called
	ErrNotScheduled = errors.New("no deadline scheduled")
	// ErrLimitExceeded is returned by SetNext once the configured trip budget is used up
	ErrLimitExceeded = errors.New("scheduler trip limit exceeded")
)

// MicroScheduler tracks a single deadline. It is used to pace both full
// control cycles and the sub-cycle steps of a pwm ramp. An optional trip
// limit turns it into a bounded retry budget: callers branch on
// ErrLimitExceeded as a normal timeout outcome, not a fault.
type MicroScheduler struct {
	stepDelay   time.Duration
	lastUpdated time.Time
	triggerAt   time.Time
	scheduled   bool

	limited   bool
	remaining int
}

func New(stepDelay time.Duration) *MicroScheduler {
	return &MicroScheduler{
		stepDelay: stepDelay,
	}
}

func NewLimited(stepDelay time.Duration, limit int) *MicroScheduler {
	return &MicroScheduler{
		stepDelay: stepDelay,
		limited:   true,
		remaining: limit,
	}
}

func (s *MicroScheduler) SetNext() error {
	return s.SetNextAt(time.Now())
}

// SetNextAt arms the next deadline at now + stepDelay. If a trip limit was
// configured and the budget is exhausted, the deadline is not advanced and
// ErrLimitExceeded is returned.
func (s *MicroScheduler) SetNextAt(now time.Time) error {
	if s.limited {
		if s.remaining <= 0 {
			return ErrLimitExceeded
		}
		s.remaining--
	}
	s.lastUpdated = now
	s.triggerAt = now.Add(s.stepDelay)
	s.scheduled = true
	return nil
}

func (s *MicroScheduler) WasPassed() (bool, error) {
	return s.WasPassedAt(time.Now())
}

// WasPassedAt reports whether the armed deadline has passed. Degenerate
// clock conditions (time moved backwards, or an unexpectedly large gap
// such as a suspended process) are treated as passed so they can never
// wedge the control loop.
func (s *MicroScheduler) WasPassedAt(now time.Time) (bool, error) {
	if !s.scheduled {
		return false, ErrNotScheduled
	}
	if now.Before(s.lastUpdated) {
		ui.Warning("We went back in time!")
		return true, nil
	}
	if now.Sub(s.lastUpdated) > 2*s.stepDelay {
		ui.Warning("We went into the future!")
		return true, nil
	}
	return now.After(s.triggerAt), nil
}

// SuggestStepDelay sizes a ramp step delay so that maxSteps steps fit within
// cycleLength, clamped to maxLength (ignored when <= 0). This keeps a full
// 0-255 ramp from taking arbitrarily long on large cycle lengths.
func SuggestStepDelay(cycleLength time.Duration, maxSteps float64, maxLength time.Duration) time.Duration {
	delay := time.Duration(float64(cycleLength) / maxSteps)
	if maxLength > 0 && delay > maxLength {
		return maxLength
	}
	return delay
}
