package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is The Odds API v4 root.
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	requestsPerMinute = 30
	requestTimeout    = 10 * time.Second

	// MarketH2H is the head-to-head (moneyline) market key.
	MarketH2H = "h2h"
)

// Client handles communication with The Odds API.
type Client struct {
	// BaseURL can be overridden for tests.
	BaseURL string

	apiKey     string
	region     string
	oddsFormat string
	dateFormat string
	client     *RateLimitedClient
}

// NewClient creates a new API client.
func NewClient(apiKey, region, oddsFormat, dateFormat string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		region:     region,
		oddsFormat: oddsFormat,
		dateFormat: dateFormat,
		client:     NewRateLimitedClient(requestsPerMinute, requestTimeout),
	}
}

// Event is one event from the odds endpoint, with zero or more bookmaker
// quotes for it.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is a single book's markets for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is one market (e.g. h2h) with its outcomes.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one priced side of a market.
type Outcome struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Score is one event from the scores endpoint. The provider reports scores
// as strings; use TeamScore to get them as numbers.
type Score struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
}

// TeamScore is one team's score entry.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// Points parses the score string. ok is false when the provider has no
// numeric score yet.
func (t TeamScore) Points() (int, bool) {
	n, err := strconv.Atoi(t.Score)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Points returns both teams' scores, matching entries by team name.
// ok is false unless both sides have numeric scores.
func (s *Score) Points() (home, away int, ok bool) {
	var haveHome, haveAway bool
	for _, ts := range s.Scores {
		n, numeric := ts.Points()
		if !numeric {
			continue
		}
		switch ts.Name {
		case s.HomeTeam:
			home, haveHome = n, true
		case s.AwayTeam:
			away, haveAway = n, true
		}
	}
	return home, away, haveHome && haveAway
}

// Odds fetches current head-to-head odds for a sport.
func (c *Client) Odds(ctx context.Context, sportKey string) ([]Event, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.region)
	params.Set("markets", MarketH2H)
	params.Set("oddsFormat", c.oddsFormat)
	params.Set("dateFormat", c.dateFormat)

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.BaseURL, sportKey, params.Encode())

	body, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching odds for %s: %w", sportKey, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("parsing odds response for %s: %w", sportKey, err)
	}

	return events, nil
}

// Scores fetches scores for a sport, looking back daysFrom days.
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]Score, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("daysFrom", strconv.Itoa(daysFrom))
	params.Set("dateFormat", c.dateFormat)

	endpoint := fmt.Sprintf("%s/sports/%s/scores?%s", c.BaseURL, sportKey, params.Encode())

	body, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching scores for %s: %w", sportKey, err)
	}

	var scores []Score
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("parsing scores response for %s: %w", sportKey, err)
	}

	return scores, nil
}
