package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneyline-tracker/internal/alerts"
	"moneyline-tracker/internal/config"
	"moneyline-tracker/internal/oddsapi"
	"moneyline-tracker/internal/store"
)

// OddsProvider is the slice of the provider client the fetcher needs.
type OddsProvider interface {
	Odds(ctx context.Context, sportKey string) ([]oddsapi.Event, error)
}

// Fetcher pulls current moneyline odds for each configured sport,
// normalizes them into game records and upserts them keyed by game ID.
type Fetcher struct {
	provider  OddsProvider
	store     store.Store
	notifier  *alerts.Notifier
	sportKeys []string
	mappings  map[string]config.SportMapping

	now func() time.Time
}

// New creates a fetcher for the given sports. mappings canonicalizes each
// provider sport key into the sport/league names stored on records.
func New(provider OddsProvider, st store.Store, notifier *alerts.Notifier, sportKeys []string, mappings map[string]config.SportMapping) *Fetcher {
	return &Fetcher{
		provider:  provider,
		store:     st,
		notifier:  notifier,
		sportKeys: sportKeys,
		mappings:  mappings,
		now:       time.Now,
	}
}

// FetchAll fetches and stores odds for every configured sport. A provider
// failure for one sport is logged and treated as zero events for that sport;
// the remaining sports are still processed.
func (f *Fetcher) FetchAll(ctx context.Context) {
	for _, key := range f.sportKeys {
		stored, fetched, err := f.fetchSport(ctx, key)
		if err != nil {
			f.notifier.LogError("fetching odds for "+key, err)
			continue
		}
		f.notifier.LogFetch(key, fetched, stored)
	}
}

func (f *Fetcher) fetchSport(ctx context.Context, sportKey string) (stored, fetched int, err error) {
	mapping, ok := f.mappings[sportKey]
	if !ok {
		return 0, 0, fmt.Errorf("sport key %q not in mapping table", sportKey)
	}

	events, err := f.provider.Odds(ctx, sportKey)
	if err != nil {
		return 0, 0, err
	}

	now := f.now().UTC()
	for _, ev := range events {
		rec, err := Normalize(ev, mapping, now)
		if err != nil {
			slog.Warn("Skipping event", "sport", sportKey, "gameID", ev.ID, "reason", err)
			continue
		}

		if err := f.store.UpsertGame(ctx, rec); err != nil {
			f.notifier.LogError("storing game "+rec.GameID, err)
			continue
		}
		stored++
	}

	return stored, len(events), nil
}

// Normalize builds a canonical game record from one provider event.
// It selects one deterministic quote per team: the first bookmaker whose
// head-to-head market prices that team. An event missing its identity
// fields or a quote for either side is rejected.
func Normalize(ev oddsapi.Event, mapping config.SportMapping, now time.Time) (store.GameRecord, error) {
	if ev.ID == "" {
		return store.GameRecord{}, fmt.Errorf("missing game ID")
	}
	if ev.HomeTeam == "" || ev.AwayTeam == "" {
		return store.GameRecord{}, fmt.Errorf("missing team names")
	}
	if ev.CommenceTime.IsZero() {
		return store.GameRecord{}, fmt.Errorf("missing commence time")
	}

	homeML, homeOK := firstQuote(ev, ev.HomeTeam)
	awayML, awayOK := firstQuote(ev, ev.AwayTeam)
	if !homeOK || !awayOK {
		return store.GameRecord{}, fmt.Errorf("no moneyline quote for both teams")
	}

	status := store.StatusInProgress
	if ev.CommenceTime.After(now) {
		status = store.StatusScheduled
	}

	return store.GameRecord{
		GameID:      ev.ID,
		Sport:       mapping.Sport,
		League:      mapping.League,
		EventDate:   ev.CommenceTime.UTC(),
		Home:        store.TeamLine{Name: ev.HomeTeam, Moneyline: homeML},
		Away:        store.TeamLine{Name: ev.AwayTeam, Moneyline: awayML},
		Status:      status,
		LastUpdated: now,
	}, nil
}

func firstQuote(ev oddsapi.Event, team string) (int, bool) {
	for _, bk := range ev.Bookmakers {
		for _, market := range bk.Markets {
			if market.Key != oddsapi.MarketH2H {
				continue
			}
			for _, outcome := range market.Outcomes {
				if outcome.Name == team {
					return outcome.Price, true
				}
			}
		}
	}
	return 0, false
}
