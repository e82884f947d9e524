package store

import (
	"context"
	"time"
)

// Status is the lifecycle state of a game. Transitions are monotonic:
// Scheduled -> InProgress -> Completed, never backwards.
type Status string

const (
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// TeamLine is one side of a game with its pre-game moneyline
// (American odds: negative = favored, positive = underdog).
type TeamLine struct {
	Name      string `json:"name"`
	Moneyline int    `json:"moneyline"`
}

// Result holds the final outcome of a game. All fields are unset until the
// reconciler settles the game. A drawn game completes with Winner nil and
// Draw set - there is no sentinel team name for draws.
type Result struct {
	HomeScore *int    `json:"home_score"`
	AwayScore *int    `json:"away_score"`
	Winner    *string `json:"winner"`
	Draw      bool    `json:"draw,omitempty"`
}

// GameRecord is the canonical record for one real-world event, keyed by the
// provider's game ID. GameID and EventDate are immutable once created.
type GameRecord struct {
	GameID      string    `json:"game_id"`
	Sport       string    `json:"sport"`
	League      string    `json:"league"`
	EventDate   time.Time `json:"event_date"`
	Home        TeamLine  `json:"home"`
	Away        TeamLine  `json:"away"`
	Result      Result    `json:"result"`
	Status      Status    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// Settled reports whether the record carries a final outcome.
func (g *GameRecord) Settled() bool {
	return g.Status == StatusCompleted
}

// Filters narrows a general game query. Zero values mean "no filter".
// Team matches either side case-insensitively. From/To bound EventDate
// inclusively.
type Filters struct {
	Team     string
	Sport    string
	League   string
	Status   Status
	Winner   string
	From     *time.Time
	To       *time.Time
	Limit    int
	SortDesc bool
}

// Store is the datastore for game records. Implementations must make
// UpsertGame idempotent (repeated identical input changes only last_updated)
// and must never let it regress Status or touch result fields.
type Store interface {
	// UpsertGame inserts or refreshes a record keyed by GameID.
	UpsertGame(ctx context.Context, rec GameRecord) error

	// Unresolved returns all records that have not been settled yet.
	Unresolved(ctx context.Context) ([]GameRecord, error)

	// SetResult settles a game: scores, winner (nil for a draw), and
	// Status = Completed. It is the only write path for result fields.
	SetResult(ctx context.Context, gameID string, homeScore, awayScore int, winner *string, draw bool) error

	// CompletedByTeam returns completed games where the team played either
	// side (case-insensitive exact match), optionally bounded by asOf.
	CompletedByTeam(ctx context.Context, team string, asOf *time.Time) ([]GameRecord, error)

	// GamesBetween returns records with from <= EventDate <= to.
	GamesBetween(ctx context.Context, from, to time.Time) ([]GameRecord, error)

	// Games runs a general filtered query for the read surface.
	Games(ctx context.Context, f Filters) ([]GameRecord, error)

	// Teams returns the distinct team names seen on either side.
	Teams(ctx context.Context) ([]string, error)

	Close() error
}
