package scheduler

import (
	"context"
	"time"

	"moneyline-tracker/internal/store"
)

// Policy decides, per tick, whether a fetch/reconcile pass should run now.
// Policies keep no state between ticks; duplicate triggers inside the
// tolerance are harmless because the downstream work is idempotent.
type Policy interface {
	ShouldRun(ctx context.Context, now time.Time) (bool, error)
}

// FixedWindow runs at N evenly spaced checkpoints inside a fixed daily
// window, hours in UTC. A tick triggers when it lands within Tolerance of
// a checkpoint.
type FixedWindow struct {
	StartHour   int // inclusive, 0-23
	EndHour     int // exclusive, up to 24
	Checkpoints int
	Tolerance   time.Duration
}

// ShouldRun reports whether now falls inside the window and within
// tolerance of a checkpoint.
func (p FixedWindow) ShouldRun(_ context.Context, now time.Time) (bool, error) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), p.StartHour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(p.EndHour-p.StartHour) * time.Hour)

	if now.Before(start) || !now.Before(end) {
		return false, nil
	}

	spacing := end.Sub(start) / time.Duration(p.Checkpoints)
	return nearCheckpoint(now, start, spacing, p.Checkpoints, p.Tolerance), nil
}

// GameLister is the slice of the store the data-driven policy needs.
type GameLister interface {
	GamesBetween(ctx context.Context, from, to time.Time) ([]store.GameRecord, error)
}

// GameDay is the data-driven policy: it anchors the update window to the
// day's actual first and last game times, shifted by FinishDelay so a game
// has plausibly finished, and triggers every Interval within that window.
// The window is clamped to the end of the day so a late game never pushes
// its only checkpoint past midnight, out of the day's query range.
// A day without games always skips, without error.
type GameDay struct {
	Games       GameLister
	FinishDelay time.Duration
	Interval    time.Duration
	Tolerance   time.Duration
}

// ShouldRun queries the day's games and reports whether now lands within
// tolerance of an update checkpoint.
func (p GameDay) ShouldRun(ctx context.Context, now time.Time) (bool, error) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	games, err := p.Games.GamesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	if len(games) == 0 {
		return false, nil
	}

	first := games[0].EventDate
	last := games[0].EventDate
	for _, g := range games[1:] {
		if g.EventDate.Before(first) {
			first = g.EventDate
		}
		if g.EventDate.After(last) {
			last = g.EventDate
		}
	}

	windowStart := first.Add(p.FinishDelay)
	windowEnd := last.Add(p.FinishDelay)

	// Tomorrow's ticks query tomorrow's games, so any checkpoint past
	// midnight would be unreachable. Clamp to keep at least one checkpoint
	// inside today.
	if windowEnd.After(dayEnd) {
		windowEnd = dayEnd
	}
	if windowStart.After(windowEnd) {
		windowStart = windowEnd
	}

	count := int(windowEnd.Sub(windowStart)/p.Interval) + 1
	return nearCheckpoint(now, windowStart, p.Interval, count, p.Tolerance), nil
}

// nearCheckpoint reports whether now is within tol of any of count
// checkpoints spaced from start. Both edges are inclusive: a tick exactly
// tol away still triggers.
func nearCheckpoint(now, start time.Time, spacing time.Duration, count int, tol time.Duration) bool {
	for k := 0; k < count; k++ {
		cp := start.Add(time.Duration(k) * spacing)
		d := now.Sub(cp)
		if d < 0 {
			d = -d
		}
		if d <= tol {
			return true
		}
	}
	return false
}
