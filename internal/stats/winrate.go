package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moneyline-tracker/internal/store"
)

// Classification of a team within one game, derived purely from the two
// moneylines. Strictly lower moneyline means favored; equal moneylines
// classify as neither and the game is excluded from statistics.
type Classification int

const (
	Neither Classification = iota
	Favored
	Underdog
)

// Classify compares a team's moneyline with its opponent's.
func Classify(teamML, oppML int) Classification {
	switch {
	case teamML < oppML:
		return Favored
	case teamML > oppML:
		return Underdog
	default:
		return Neither
	}
}

// Stats is the favored/underdog win-rate summary for one team.
// Rates are percentages; an empty denominator yields 0.
type Stats struct {
	Team string `json:"team"`

	FavoredWins        int     `json:"favored_wins"`
	TotalFavoredGames  int     `json:"total_favored_games"`
	FavoredWinRate     float64 `json:"favored_win_rate"`
	UnderdogWins       int     `json:"underdog_wins"`
	TotalUnderdogGames int     `json:"total_underdog_games"`
	UnderdogWinRate    float64 `json:"underdog_win_rate"`

	// Average vig-free implied probability of the team's moneylines in
	// each bucket, as a percentage. Comparing it against the actual win
	// rate shows how the books priced this team.
	FavoredImpliedAvg  float64 `json:"favored_implied_avg"`
	UnderdogImpliedAvg float64 `json:"underdog_implied_avg"`
}

// CompletedLister is the slice of the store the analyzer needs.
type CompletedLister interface {
	CompletedByTeam(ctx context.Context, team string, asOf *time.Time) ([]store.GameRecord, error)
}

// Analyzer computes win-rate statistics from completed games.
type Analyzer struct {
	games CompletedLister
}

// NewAnalyzer creates an analyzer over the given store.
func NewAnalyzer(games CompletedLister) *Analyzer {
	return &Analyzer{games: games}
}

// Compute classifies each of team's completed games as favored or underdog
// and accumulates win rates. When asOf is given, only games with an event
// date at or before it count, so callers can ask for the stats as they were
// known at a past moment. Aside from the store read, it is a pure function
// of its inputs.
func (a *Analyzer) Compute(ctx context.Context, team string, asOf *time.Time) (Stats, error) {
	if team == "" {
		return Stats{}, fmt.Errorf("team must not be empty")
	}

	games, err := a.games.CompletedByTeam(ctx, team, asOf)
	if err != nil {
		return Stats{}, fmt.Errorf("loading completed games for %s: %w", team, err)
	}

	s := Stats{Team: team}
	var favoredImplied, underdogImplied float64
	for _, g := range games {
		var teamML, oppML int
		switch {
		case strings.EqualFold(g.Home.Name, team):
			teamML, oppML = g.Home.Moneyline, g.Away.Moneyline
		case strings.EqualFold(g.Away.Name, team):
			teamML, oppML = g.Away.Moneyline, g.Home.Moneyline
		default:
			continue
		}

		// A zero moneyline is not a real American price; treat it as a
		// missing quote.
		if teamML == 0 || oppML == 0 {
			slog.Warn("Game without usable moneylines", "gameID", g.GameID, "team", team)
			continue
		}

		won := g.Result.Winner != nil && strings.EqualFold(*g.Result.Winner, team)

		fair := fairProbability(teamML, oppML)

		switch Classify(teamML, oppML) {
		case Favored:
			s.TotalFavoredGames++
			favoredImplied += fair
			if won {
				s.FavoredWins++
			}
		case Underdog:
			s.TotalUnderdogGames++
			underdogImplied += fair
			if won {
				s.UnderdogWins++
			}
		case Neither:
			// Equal moneylines: no classification, excluded.
		}
	}

	if s.TotalFavoredGames > 0 {
		s.FavoredWinRate = float64(s.FavoredWins) / float64(s.TotalFavoredGames) * 100
		s.FavoredImpliedAvg = favoredImplied / float64(s.TotalFavoredGames) * 100
	}
	if s.TotalUnderdogGames > 0 {
		s.UnderdogWinRate = float64(s.UnderdogWins) / float64(s.TotalUnderdogGames) * 100
		s.UnderdogImpliedAvg = underdogImplied / float64(s.TotalUnderdogGames) * 100
	}

	return s, nil
}
