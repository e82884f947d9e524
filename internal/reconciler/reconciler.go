package reconciler

import (
	"context"
	"log/slog"

	"moneyline-tracker/internal/alerts"
	"moneyline-tracker/internal/oddsapi"
	"moneyline-tracker/internal/store"
)

// ScoreProvider is the slice of the provider client the reconciler needs.
type ScoreProvider interface {
	Scores(ctx context.Context, sportKey string, daysFrom int) ([]oddsapi.Score, error)
}

// Reconciler settles unresolved games against the provider's score feed.
// It is the only component that writes result fields or marks a game
// Completed, and re-running it after a game settles is a no-op.
type Reconciler struct {
	provider     ScoreProvider
	store        store.Store
	notifier     *alerts.Notifier
	sportKeys    []string
	leagueToKey  map[string]string
	lookbackDays int
}

// New creates a reconciler for the given sports. leagueToKey maps the
// canonical league name stored on records back to the provider sport key.
func New(provider ScoreProvider, st store.Store, notifier *alerts.Notifier, sportKeys []string, leagueToKey map[string]string, lookbackDays int) *Reconciler {
	return &Reconciler{
		provider:     provider,
		store:        st,
		notifier:     notifier,
		sportKeys:    sportKeys,
		leagueToKey:  leagueToKey,
		lookbackDays: lookbackDays,
	}
}

// Reconcile scans unresolved records, batch-fetches scores per sport, and
// settles every game the provider reports as completed with both scores.
// Records without a matching score entry are left for a future run. A
// provider error aborts that sport's batch only.
func (r *Reconciler) Reconcile(ctx context.Context) {
	unresolved, err := r.store.Unresolved(ctx)
	if err != nil {
		r.notifier.LogError("loading unresolved games", err)
		return
	}
	if len(unresolved) == 0 {
		return
	}

	// One batch score fetch per sport that actually has open games.
	bySport := make(map[string][]store.GameRecord)
	for _, rec := range unresolved {
		key, ok := r.leagueToKey[rec.League]
		if !ok {
			slog.Warn("Unresolved game for unconfigured league", "gameID", rec.GameID, "league", rec.League)
			continue
		}
		bySport[key] = append(bySport[key], rec)
	}

	settled := 0
	for _, key := range r.sportKeys {
		records, ok := bySport[key]
		if !ok {
			continue
		}

		scores, err := r.provider.Scores(ctx, key, r.lookbackDays)
		if err != nil {
			r.notifier.LogError("fetching scores for "+key, err)
			continue
		}

		byID := make(map[string]oddsapi.Score, len(scores))
		for _, sc := range scores {
			byID[sc.ID] = sc
		}

		for _, rec := range records {
			if r.settle(ctx, rec, byID) {
				settled++
			}
		}
	}

	r.notifier.LogReconcile(len(unresolved), settled)
}

// settle resolves one record against the score feed. Returns true when the
// game was settled on this run.
func (r *Reconciler) settle(ctx context.Context, rec store.GameRecord, byID map[string]oddsapi.Score) bool {
	sc, ok := byID[rec.GameID]
	if !ok {
		// No score entry yet; a future tick will pick it up.
		return false
	}
	if !sc.Completed {
		return false
	}

	home, away, ok := sc.Points()
	if !ok {
		slog.Warn("Completed game without numeric scores", "gameID", rec.GameID)
		return false
	}

	var winner *string
	draw := false
	switch {
	case home > away:
		winner = &rec.Home.Name
	case away > home:
		winner = &rec.Away.Name
	default:
		draw = true
	}

	if err := r.store.SetResult(ctx, rec.GameID, home, away, winner, draw); err != nil {
		r.notifier.LogError("settling game "+rec.GameID, err)
		return false
	}

	rec.Result.HomeScore = &home
	rec.Result.AwayScore = &away
	rec.Result.Winner = winner
	rec.Result.Draw = draw
	rec.Status = store.StatusCompleted
	r.notifier.AlertResult(rec)
	return true
}
