package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for configuration values.
const (
	DefaultDBPath             = "/data/moneylines.db"
	DefaultPort               = "8080"
	DefaultRegion             = "us"
	DefaultOddsFormat         = "american"
	DefaultDateFormat         = "iso"
	DefaultTickInterval       = 5 * time.Minute
	DefaultFetchInterval      = 1 * time.Hour
	DefaultPolicy             = "gameday"
	DefaultUpdateInterval     = 4 * time.Hour
	DefaultFinishDelay        = 3 * time.Hour
	DefaultTolerance          = 5 * time.Minute
	DefaultWindowStartHour    = 12
	DefaultWindowEndHour      = 24
	DefaultWindowCheckpoints  = 4
	DefaultScoresLookbackDays = 3
	DefaultAlertCooldown      = 1 * time.Hour
)

// SportMapping canonicalizes a provider sport key into the sport and league
// names stored on every record. Ingestion never infers these from free text.
type SportMapping struct {
	Sport  string
	League string
}

// Sports is the fixed mapping table for supported provider sport keys. It
// doubles as the allow-list: a key outside this table cannot be configured.
var Sports = map[string]SportMapping{
	"basketball_nba":         {Sport: "Basketball", League: "NBA"},
	"basketball_ncaab":       {Sport: "Basketball", League: "NCAAB"},
	"americanfootball_nfl":   {Sport: "Football", League: "NFL"},
	"americanfootball_ncaaf": {Sport: "Football", League: "NCAAF"},
	"icehockey_nhl":          {Sport: "Hockey", League: "NHL"},
	"baseball_mlb":           {Sport: "Baseball", League: "MLB"},
}

// DefaultSportKeys are the sports fetched when SPORT_KEYS is not set.
var DefaultSportKeys = []string{
	"basketball_nba",
	"americanfootball_nfl",
	"basketball_ncaab",
	"americanfootball_ncaaf",
	"icehockey_nhl",
	"baseball_mlb",
}

// Config holds all application configuration.
type Config struct {
	OddsAPIKey string
	DBPath     string
	Port       string

	// Provider request parameters
	Region             string
	OddsFormat         string
	DateFormat         string
	SportKeys          []string
	ScoresLookbackDays int

	// Scheduling
	TickInterval   time.Duration
	FetchInterval  time.Duration
	Policy         string // "gameday" or "window"
	UpdateInterval time.Duration
	FinishDelay    time.Duration
	Tolerance      time.Duration

	// Fixed-window policy settings (hours in UTC)
	WindowStartHour   int
	WindowEndHour     int
	WindowCheckpoints int

	AlertCooldown time.Duration

	// Optional: natural-language query translation. Empty disables the
	// capability entirely.
	GeminiAPIKey string
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		OddsAPIKey: os.Getenv("ODDS_API_KEY"),
		DBPath:     DefaultDBPath,
		Port:       DefaultPort,

		Region:             DefaultRegion,
		OddsFormat:         DefaultOddsFormat,
		DateFormat:         DefaultDateFormat,
		SportKeys:          DefaultSportKeys,
		ScoresLookbackDays: DefaultScoresLookbackDays,

		TickInterval:   DefaultTickInterval,
		FetchInterval:  DefaultFetchInterval,
		Policy:         DefaultPolicy,
		UpdateInterval: DefaultUpdateInterval,
		FinishDelay:    DefaultFinishDelay,
		Tolerance:      DefaultTolerance,

		WindowStartHour:   DefaultWindowStartHour,
		WindowEndHour:     DefaultWindowEndHour,
		WindowCheckpoints: DefaultWindowCheckpoints,

		AlertCooldown: DefaultAlertCooldown,

		GeminiAPIKey: os.Getenv("GEMINI_KEY"),
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("ODDS_REGION"); v != "" {
		cfg.Region = v
	}

	if v := os.Getenv("SPORT_KEYS"); v != "" {
		var keys []string
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		cfg.SportKeys = keys
	}

	if v := os.Getenv("SCORES_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ScoresLookbackDays = n
		}
	}

	if v := os.Getenv("TICK_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TickInterval = time.Duration(n) * time.Minute
		}
	}

	if v := os.Getenv("FETCH_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FetchInterval = time.Duration(n) * time.Minute
		}
	}

	if v := os.Getenv("SCHEDULER_POLICY"); v != "" {
		cfg.Policy = v
	}

	if v := os.Getenv("UPDATE_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UpdateInterval = time.Duration(n) * time.Hour
		}
	}

	if v := os.Getenv("FINISH_DELAY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FinishDelay = time.Duration(n) * time.Hour
		}
	}

	if v := os.Getenv("TOLERANCE_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tolerance = time.Duration(n) * time.Minute
		}
	}

	if v := os.Getenv("WINDOW_START_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WindowStartHour = n
		}
	}

	if v := os.Getenv("WINDOW_END_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WindowEndHour = n
		}
	}

	if v := os.Getenv("WINDOW_CHECKPOINTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WindowCheckpoints = n
		}
	}

	if v := os.Getenv("ALERT_COOLDOWN_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertCooldown = time.Duration(n) * time.Minute
		}
	}

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
// A failure here is fatal at startup.
func Validate(cfg Config) error {
	if cfg.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if len(cfg.SportKeys) == 0 {
		return fmt.Errorf("SPORT_KEYS must list at least one sport")
	}
	for _, key := range cfg.SportKeys {
		if _, ok := Sports[key]; !ok {
			return fmt.Errorf("unsupported sport key %q", key)
		}
	}
	if cfg.ScoresLookbackDays < 1 || cfg.ScoresLookbackDays > 3 {
		return fmt.Errorf("SCORES_LOOKBACK_DAYS must be between 1 and 3, got %d", cfg.ScoresLookbackDays)
	}
	if cfg.TickInterval < time.Minute {
		return fmt.Errorf("TICK_INTERVAL_MIN must be at least 1 minute, got %v", cfg.TickInterval)
	}
	if cfg.FetchInterval < time.Minute {
		return fmt.Errorf("FETCH_INTERVAL_MIN must be at least 1 minute, got %v", cfg.FetchInterval)
	}
	if cfg.Policy != "gameday" && cfg.Policy != "window" {
		return fmt.Errorf("SCHEDULER_POLICY must be \"gameday\" or \"window\", got %q", cfg.Policy)
	}
	if cfg.UpdateInterval <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL_HOURS must be positive, got %v", cfg.UpdateInterval)
	}
	if cfg.FinishDelay < 0 {
		return fmt.Errorf("FINISH_DELAY_HOURS must be non-negative, got %v", cfg.FinishDelay)
	}
	if cfg.Tolerance <= 0 || cfg.Tolerance > cfg.UpdateInterval/2 {
		return fmt.Errorf("TOLERANCE_MIN must be positive and at most half the update interval, got %v", cfg.Tolerance)
	}
	if cfg.WindowStartHour < 0 || cfg.WindowStartHour > 23 {
		return fmt.Errorf("WINDOW_START_HOUR must be between 0 and 23, got %d", cfg.WindowStartHour)
	}
	if cfg.WindowEndHour <= cfg.WindowStartHour || cfg.WindowEndHour > 24 {
		return fmt.Errorf("WINDOW_END_HOUR must be after WINDOW_START_HOUR and at most 24, got %d", cfg.WindowEndHour)
	}
	if cfg.WindowCheckpoints < 1 {
		return fmt.Errorf("WINDOW_CHECKPOINTS must be at least 1, got %d", cfg.WindowCheckpoints)
	}
	return nil
}

// Mapping returns the canonical sport/league names for a configured key.
func Mapping(sportKey string) (SportMapping, bool) {
	m, ok := Sports[sportKey]
	return m, ok
}

// Mappings returns the sport/league mapping for each configured sport key,
// for injection into the components that canonicalize records.
func (c Config) Mappings() map[string]SportMapping {
	m := make(map[string]SportMapping, len(c.SportKeys))
	for _, key := range c.SportKeys {
		if sm, ok := Sports[key]; ok {
			m[key] = sm
		}
	}
	return m
}
