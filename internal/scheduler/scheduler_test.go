package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneyline-tracker/internal/store"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestFixedWindowShouldRun(t *testing.T) {
	// Window 12:00-24:00 UTC, 4 checkpoints: 12:00, 15:00, 18:00, 21:00.
	p := FixedWindow{StartHour: 12, EndHour: 24, Checkpoints: 4, Tolerance: 5 * time.Minute}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", at(11, 55), false},
		{"first checkpoint exact", at(12, 0), true},
		{"within tolerance after", at(12, 4), true},
		{"tolerance boundary inclusive", at(12, 5), true},
		{"just past tolerance", at(12, 6), false},
		{"between checkpoints", at(13, 30), false},
		{"third checkpoint", at(18, 0), true},
		{"within tolerance before checkpoint", at(20, 56), true},
		{"last checkpoint", at(21, 0), true},
		{"after last checkpoint", at(23, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ShouldRun(context.Background(), tt.now)
			if err != nil {
				t.Fatalf("ShouldRun: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldRun(%s) = %v, want %v", tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

type fakeGames struct {
	games []store.GameRecord
	err   error
}

func (f fakeGames) GamesBetween(_ context.Context, _, _ time.Time) ([]store.GameRecord, error) {
	return f.games, f.err
}

func gameAt(hour int) store.GameRecord {
	return store.GameRecord{
		GameID:    "g",
		EventDate: at(hour, 0),
	}
}

func TestGameDayShouldRun(t *testing.T) {
	// First game 18:00, last game 22:00, finish delay 3h: checkpoints every
	// 4h between 21:00 and 01:00 next day -> 21:00 and 01:00.
	games := fakeGames{games: []store.GameRecord{gameAt(18), gameAt(22)}}
	p := GameDay{
		Games:       games,
		FinishDelay: 3 * time.Hour,
		Interval:    4 * time.Hour,
		Tolerance:   5 * time.Minute,
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before first checkpoint", at(20, 0), false},
		{"first checkpoint", at(21, 0), true},
		{"within tolerance", at(21, 5), true},
		{"past tolerance", at(21, 6), false},
		{"between checkpoints", at(23, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ShouldRun(context.Background(), tt.now)
			if err != nil {
				t.Fatalf("ShouldRun: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldRun(%s) = %v, want %v", tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestGameDaySkipsEmptyDay(t *testing.T) {
	p := GameDay{
		Games:       fakeGames{},
		FinishDelay: 3 * time.Hour,
		Interval:    4 * time.Hour,
		Tolerance:   5 * time.Minute,
	}

	got, err := p.ShouldRun(context.Background(), at(18, 0))
	if err != nil {
		t.Fatalf("ShouldRun: %v", err)
	}
	if got {
		t.Error("triggered on a day without games")
	}
}

func TestGameDaySingleGame(t *testing.T) {
	// One game collapses the window to a single checkpoint at its finish time.
	p := GameDay{
		Games:       fakeGames{games: []store.GameRecord{gameAt(19)}},
		FinishDelay: 3 * time.Hour,
		Interval:    4 * time.Hour,
		Tolerance:   5 * time.Minute,
	}

	got, err := p.ShouldRun(context.Background(), at(22, 0))
	if err != nil {
		t.Fatalf("ShouldRun: %v", err)
	}
	if !got {
		t.Error("missed the single checkpoint at first game + finish delay")
	}

	got, err = p.ShouldRun(context.Background(), at(19, 0))
	if err != nil {
		t.Fatalf("ShouldRun: %v", err)
	}
	if got {
		t.Error("triggered before the game could have finished")
	}
}

func TestGameDayLateGameClampedToEndOfDay(t *testing.T) {
	// A 23:00 game with a 3h finish delay would put its only checkpoint at
	// 02:00 the next day, where the day query no longer sees the game. The
	// clamp moves that checkpoint to end of day so the game still gets a
	// reconcile pass.
	p := GameDay{
		Games:       fakeGames{games: []store.GameRecord{gameAt(23)}},
		FinishDelay: 3 * time.Hour,
		Interval:    4 * time.Hour,
		Tolerance:   5 * time.Minute,
	}

	got, err := p.ShouldRun(context.Background(), at(23, 57))
	if err != nil {
		t.Fatalf("ShouldRun: %v", err)
	}
	if !got {
		t.Error("no trigger before midnight for a late game")
	}

	got, err = p.ShouldRun(context.Background(), at(23, 30))
	if err != nil {
		t.Fatalf("ShouldRun: %v", err)
	}
	if got {
		t.Error("triggered well before the clamped checkpoint")
	}
}

func TestGameDayPropagatesStoreError(t *testing.T) {
	p := GameDay{
		Games:       fakeGames{err: errors.New("db locked")},
		FinishDelay: 3 * time.Hour,
		Interval:    4 * time.Hour,
		Tolerance:   5 * time.Minute,
	}

	if _, err := p.ShouldRun(context.Background(), at(18, 0)); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
