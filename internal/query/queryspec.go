package query

import (
	"context"
	"fmt"
	"time"

	"moneyline-tracker/internal/config"
	"moneyline-tracker/internal/store"
)

// Spec is a constrained description of a game query. It is the only shape a
// natural-language translation may produce, and it is validated before it
// touches the store - translator output is untrusted input.
type Spec struct {
	Team     string     `json:"team,omitempty"`
	Sport    string     `json:"sport,omitempty"`
	League   string     `json:"league,omitempty"`
	Status   string     `json:"status,omitempty"`
	Winner   string     `json:"winner,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	SortDesc bool       `json:"sort_desc,omitempty"`
}

// MaxLimit bounds how many records any single query may return.
const MaxLimit = 500

// Translator turns free text into a query spec. Implementations are opaque
// capabilities (typically a generative model); their correctness is not
// trusted and their output must pass Validate before execution.
type Translator interface {
	Translate(ctx context.Context, text string) (Spec, error)
}

// Schema is the allow-list a spec is validated against: the sport and league
// names the mapping table can produce. Built once at startup and injected.
type Schema struct {
	sports  map[string]bool
	leagues map[string]bool
}

// NewSchema derives the allow-list from a sport mapping table.
func NewSchema(mappings map[string]config.SportMapping) Schema {
	schema := Schema{
		sports:  make(map[string]bool, len(mappings)),
		leagues: make(map[string]bool, len(mappings)),
	}
	for _, m := range mappings {
		schema.sports[m.Sport] = true
		schema.leagues[m.League] = true
	}
	return schema
}

// Validate checks the spec against the same schema constraints as any other
// query input: known status values, allow-listed sport and league names, a
// coherent date range, and a bounded limit.
func (s Spec) Validate(schema Schema) error {
	switch store.Status(s.Status) {
	case "", store.StatusScheduled, store.StatusInProgress, store.StatusCompleted:
	default:
		return fmt.Errorf("unknown status %q", s.Status)
	}

	if s.Sport != "" && !schema.sports[s.Sport] {
		return fmt.Errorf("unknown sport %q", s.Sport)
	}
	if s.League != "" && !schema.leagues[s.League] {
		return fmt.Errorf("unknown league %q", s.League)
	}
	if s.From != nil && s.To != nil && s.From.After(*s.To) {
		return fmt.Errorf("from %s is after to %s", s.From, s.To)
	}
	if s.Limit < 0 || s.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 0 and %d, got %d", MaxLimit, s.Limit)
	}
	return nil
}

// Filters converts a validated spec into store filters.
func (s Spec) Filters() store.Filters {
	limit := s.Limit
	if limit == 0 {
		limit = MaxLimit
	}
	return store.Filters{
		Team:     s.Team,
		Sport:    s.Sport,
		League:   s.League,
		Status:   store.Status(s.Status),
		Winner:   s.Winner,
		From:     s.From,
		To:       s.To,
		Limit:    limit,
		SortDesc: s.SortDesc,
	}
}

