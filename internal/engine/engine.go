package engine

import (
	"context"
	"log/slog"
	"time"

	"moneyline-tracker/internal/alerts"
	"moneyline-tracker/internal/scheduler"
)

// Cleanup cadence for the notifier's dedup map.
const cleanupInterval = 6 * time.Hour

// Runner is one unit of recurring work: the fetch pass or the reconcile pass.
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context) { f(ctx) }

// Engine owns the poll loop. The fetch pass runs ungated on its own fixed
// cadence, starting immediately - the reconcile policy reads the day's games
// from the store, so fetching must never wait on it or a fresh deployment
// with an empty store would never pull its first odds. Only the reconcile
// pass is gated per tick by the scheduler policy.
type Engine struct {
	policy        scheduler.Policy
	fetcher       Runner
	reconciler    Runner
	notifier      *alerts.Notifier
	tickInterval  time.Duration
	fetchInterval time.Duration
}

// New creates an engine with all dependencies.
func New(policy scheduler.Policy, fetcher, reconciler Runner, notifier *alerts.Notifier, tickInterval, fetchInterval time.Duration) *Engine {
	return &Engine{
		policy:        policy,
		fetcher:       fetcher,
		reconciler:    reconciler,
		notifier:      notifier,
		tickInterval:  tickInterval,
		fetchInterval: fetchInterval,
	}
}

// Run starts the loop. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	fetchTicker := time.NewTicker(e.fetchInterval)
	defer fetchTicker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	slog.Info("Starting tick loop", "tick", e.tickInterval, "fetch", e.fetchInterval)

	e.fetcher.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Tracker stopped gracefully")
			return

		case <-cleanupTicker.C:
			e.notifier.CleanupOldAlerts()

		case <-fetchTicker.C:
			e.fetcher.Run(ctx)

		case <-ticker.C:
			e.Tick(ctx, time.Now())
		}
	}
}

// Tick runs a single policy-gated reconcile pass.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	ok, err := e.policy.ShouldRun(ctx, now)
	if err != nil {
		e.notifier.LogError("evaluating scheduler policy", err)
		return
	}
	if !ok {
		return
	}

	slog.Info("Reconcile pass triggered", "now", now.UTC().Format(time.RFC3339))
	e.reconciler.Run(ctx)
}
