package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS moneylines (
		game_id TEXT PRIMARY KEY,
		sport TEXT NOT NULL,
		league TEXT NOT NULL,
		event_date DATETIME NOT NULL,
		home_team TEXT NOT NULL,
		home_moneyline INTEGER NOT NULL,
		away_team TEXT NOT NULL,
		away_moneyline INTEGER NOT NULL,
		home_score INTEGER,
		away_score INTEGER,
		winner TEXT,
		draw INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Scheduled',
		last_updated DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_moneylines_status ON moneylines(status);
	CREATE INDEX IF NOT EXISTS idx_moneylines_event_date ON moneylines(event_date);
	CREATE INDEX IF NOT EXISTS idx_moneylines_home_team ON moneylines(home_team);
	CREATE INDEX IF NOT EXISTS idx_moneylines_away_team ON moneylines(away_team);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const recordColumns = `game_id, sport, league, event_date,
	home_team, home_moneyline, away_team, away_moneyline,
	home_score, away_score, winner, draw, status, last_updated`

// UpsertGame inserts a new record or refreshes an existing one keyed by
// game_id. Guards are enforced in SQL: event_date never changes, odds and
// team fields are frozen once the game has left Scheduled, status only moves
// forward Scheduled -> InProgress here, and result fields are never touched.
func (s *SQLite) UpsertGame(ctx context.Context, rec GameRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moneylines (game_id, sport, league, event_date,
			home_team, home_moneyline, away_team, away_moneyline,
			status, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			sport = excluded.sport,
			league = excluded.league,
			home_team = CASE WHEN moneylines.status = 'Scheduled'
				THEN excluded.home_team ELSE moneylines.home_team END,
			home_moneyline = CASE WHEN moneylines.status = 'Scheduled'
				THEN excluded.home_moneyline ELSE moneylines.home_moneyline END,
			away_team = CASE WHEN moneylines.status = 'Scheduled'
				THEN excluded.away_team ELSE moneylines.away_team END,
			away_moneyline = CASE WHEN moneylines.status = 'Scheduled'
				THEN excluded.away_moneyline ELSE moneylines.away_moneyline END,
			status = CASE WHEN moneylines.status = 'Scheduled' AND excluded.status = 'InProgress'
				THEN 'InProgress' ELSE moneylines.status END,
			last_updated = excluded.last_updated
	`, rec.GameID, rec.Sport, rec.League, rec.EventDate.UTC(),
		rec.Home.Name, rec.Home.Moneyline, rec.Away.Name, rec.Away.Moneyline,
		string(rec.Status), rec.LastUpdated.UTC())
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", rec.GameID, err)
	}
	return nil
}

// Unresolved returns all records that have not been settled yet.
func (s *SQLite) Unresolved(ctx context.Context) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM moneylines
		WHERE status != 'Completed'
		ORDER BY event_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved games: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SetResult settles a game. A no-op on records that are already Completed,
// so a late or repeated score feed can never clobber a settled outcome.
func (s *SQLite) SetResult(ctx context.Context, gameID string, homeScore, awayScore int, winner *string, draw bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE moneylines
		SET home_score = ?, away_score = ?, winner = ?, draw = ?,
			status = 'Completed', last_updated = ?
		WHERE game_id = ? AND status != 'Completed'
	`, homeScore, awayScore, winner, boolToInt(draw), time.Now().UTC(), gameID)
	if err != nil {
		return fmt.Errorf("setting result for game %s: %w", gameID, err)
	}
	return nil
}

// CompletedByTeam returns completed games where team played either side.
// The match is case-insensitive and exact; asOf, when given, bounds
// event_date inclusively.
func (s *SQLite) CompletedByTeam(ctx context.Context, team string, asOf *time.Time) ([]GameRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM moneylines
		WHERE status = 'Completed'
		  AND (LOWER(home_team) = LOWER(?) OR LOWER(away_team) = LOWER(?))
	`
	args := []any{team, team}

	if asOf != nil {
		query += " AND event_date <= ?"
		args = append(args, asOf.UTC())
	}
	query += " ORDER BY event_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying completed games for %s: %w", team, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GamesBetween returns records with from <= event_date <= to.
func (s *SQLite) GamesBetween(ctx context.Context, from, to time.Time) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM moneylines
		WHERE event_date >= ? AND event_date <= ?
		ORDER BY event_date ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying games between %s and %s: %w", from, to, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Games runs a general filtered query.
func (s *SQLite) Games(ctx context.Context, f Filters) ([]GameRecord, error) {
	var conds []string
	var args []any

	if f.Team != "" {
		conds = append(conds, "(LOWER(home_team) = LOWER(?) OR LOWER(away_team) = LOWER(?))")
		args = append(args, f.Team, f.Team)
	}
	if f.Sport != "" {
		conds = append(conds, "sport = ?")
		args = append(args, f.Sport)
	}
	if f.League != "" {
		conds = append(conds, "league = ?")
		args = append(args, f.League)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Winner != "" {
		conds = append(conds, "LOWER(winner) = LOWER(?)")
		args = append(args, f.Winner)
	}
	if f.From != nil {
		conds = append(conds, "event_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conds = append(conds, "event_date <= ?")
		args = append(args, f.To.UTC())
	}

	query := "SELECT " + recordColumns + " FROM moneylines"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.SortDesc {
		query += " ORDER BY event_date DESC"
	} else {
		query += " ORDER BY event_date ASC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Teams returns the distinct team names seen on either side.
func (s *SQLite) Teams(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT home_team AS team FROM moneylines
		UNION
		SELECT away_team FROM moneylines
		ORDER BY team ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying team names: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning team name: %w", err)
		}
		teams = append(teams, name)
	}

	return teams, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]GameRecord, error) {
	var records []GameRecord
	for rows.Next() {
		var rec GameRecord
		var homeScore, awayScore sql.NullInt64
		var winner sql.NullString
		var draw int
		var status string

		if err := rows.Scan(&rec.GameID, &rec.Sport, &rec.League, &rec.EventDate,
			&rec.Home.Name, &rec.Home.Moneyline, &rec.Away.Name, &rec.Away.Moneyline,
			&homeScore, &awayScore, &winner, &draw, &status, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning game record: %w", err)
		}

		if homeScore.Valid {
			v := int(homeScore.Int64)
			rec.Result.HomeScore = &v
		}
		if awayScore.Valid {
			v := int(awayScore.Int64)
			rec.Result.AwayScore = &v
		}
		if winner.Valid {
			v := winner.String
			rec.Result.Winner = &v
		}
		rec.Result.Draw = draw != 0
		rec.Status = Status(status)
		rec.EventDate = rec.EventDate.UTC()
		rec.LastUpdated = rec.LastUpdated.UTC()

		records = append(records, rec)
	}

	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
