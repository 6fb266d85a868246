package countdown

import (
	"math"
	"time"

	"raffle-sync-go/internal/models"
)

// DefaultTolerance is how far a new sample may drift from the current deadline before re-anchoring.
const DefaultTolerance = 1500 * time.Millisecond

// Reading is the countdown as of one tick.
type Reading struct {
	Countdown models.Countdown
	Remaining int64
	Active    bool
	// RefetchNeeded is set on the first tick that reaches zero for the current deadline.
	RefetchNeeded bool
}

// Engine turns coarse chain samples into a locally ticking countdown.
// It is not safe for concurrent use; the owner serializes calls.
type Engine struct {
	tolerance    time.Duration
	deadline     time.Time
	anchored     bool
	players      uint64
	refetchFired bool
}

func NewEngine(tolerance time.Duration) *Engine {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{tolerance: tolerance}
}

// Observe feeds a chain sample taken at now. Returns true when the deadline was (re)anchored.
func (e *Engine) Observe(secondsRemaining, players uint64, now time.Time) bool {
	e.players = players
	if players == 0 {
		e.Reset()
		return false
	}

	candidate := now.Add(time.Duration(secondsRemaining) * time.Second)
	if e.anchored {
		drift := candidate.Sub(e.deadline)
		if drift < 0 {
			drift = -drift
		}
		if drift <= e.tolerance {
			return false
		}
		// Both already at zero: moving the deadline would only re-trigger a refetch
		if !candidate.After(now) && !e.deadline.After(now) {
			return false
		}
	}

	e.deadline = candidate
	e.anchored = true
	e.refetchFired = false
	return true
}

// Tick computes the countdown at now and latches the refetch trigger.
func (e *Engine) Tick(now time.Time) Reading {
	reading := e.Peek(now)
	if reading.Active && reading.Remaining == 0 && !e.refetchFired {
		e.refetchFired = true
		reading.RefetchNeeded = true
	}
	return reading
}

// Peek computes the countdown at now without touching the refetch trigger.
func (e *Engine) Peek(now time.Time) Reading {
	if !e.anchored || e.players == 0 {
		return Reading{}
	}

	remaining := e.Remaining(now)
	return Reading{
		Countdown: Split(remaining),
		Remaining: remaining,
		Active:    true,
	}
}

// Remaining is the whole seconds left until the deadline, never negative.
func (e *Engine) Remaining(now time.Time) int64 {
	if !e.anchored {
		return 0
	}
	seconds := math.Round(e.deadline.Sub(now).Seconds())
	if seconds < 0 {
		return 0
	}
	return int64(seconds)
}

// Deadline returns the anchored deadline, if any.
func (e *Engine) Deadline() (time.Time, bool) {
	return e.deadline, e.anchored
}

// Reset clears the deadline.
func (e *Engine) Reset() {
	e.deadline = time.Time{}
	e.anchored = false
	e.refetchFired = false
}

// Split breaks seconds into hours, minutes and seconds.
func Split(seconds int64) models.Countdown {
	if seconds <= 0 {
		return models.Countdown{}
	}
	return models.Countdown{
		Hours:   int(seconds / 3600),
		Minutes: int(seconds % 3600 / 60),
		Seconds: int(seconds % 60),
	}
}
