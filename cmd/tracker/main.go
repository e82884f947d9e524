package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"moneyline-tracker/internal/alerts"
	"moneyline-tracker/internal/config"
	"moneyline-tracker/internal/engine"
	"moneyline-tracker/internal/fetcher"
	"moneyline-tracker/internal/oddsapi"
	"moneyline-tracker/internal/query"
	"moneyline-tracker/internal/reconciler"
	"moneyline-tracker/internal/scheduler"
	"moneyline-tracker/internal/server"
	"moneyline-tracker/internal/stats"
	"moneyline-tracker/internal/store"
)

func main() {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize components
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Opening database %s: %v", cfg.DBPath, err)
	}
	defer db.Close()

	client := oddsapi.NewClient(cfg.OddsAPIKey, cfg.Region, cfg.OddsFormat, cfg.DateFormat)
	notifier := alerts.NewNotifier(cfg.AlertCooldown)

	mappings := cfg.Mappings()
	f := fetcher.New(client, db, notifier, cfg.SportKeys, mappings)
	r := reconciler.New(client, db, notifier, cfg.SportKeys, leagueToKey(mappings), cfg.ScoresLookbackDays)

	policy := buildPolicy(cfg, db)

	eng := engine.New(
		policy,
		engine.RunnerFunc(f.FetchAll),
		engine.RunnerFunc(r.Reconcile),
		notifier,
		cfg.TickInterval,
		cfg.FetchInterval,
	)

	// Natural-language query translation is optional; without a key the
	// endpoint reports the capability as unavailable.
	var translator query.Translator
	if cfg.GeminiAPIKey != "" {
		translator = query.NewGeminiTranslator(cfg.GeminiAPIKey)
		log.Println("Query translation enabled")
	}

	analyzer := stats.NewAnalyzer(db)
	srv := server.New(db, analyzer, translator, query.NewSchema(config.Sports))

	notifier.LogStartup(fmt.Sprintf(" sports=%s policy=%s tick=%s update=%s db=%s port=%s",
		strings.Join(cfg.SportKeys, ","), cfg.Policy, cfg.TickInterval, cfg.UpdateInterval, cfg.DBPath, cfg.Port))

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	eng.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

// buildPolicy selects the scheduler policy from configuration.
func buildPolicy(cfg config.Config, db store.Store) scheduler.Policy {
	if cfg.Policy == "window" {
		return scheduler.FixedWindow{
			StartHour:   cfg.WindowStartHour,
			EndHour:     cfg.WindowEndHour,
			Checkpoints: cfg.WindowCheckpoints,
			Tolerance:   cfg.Tolerance,
		}
	}
	return scheduler.GameDay{
		Games:       db,
		FinishDelay: cfg.FinishDelay,
		Interval:    cfg.UpdateInterval,
		Tolerance:   cfg.Tolerance,
	}
}

// leagueToKey inverts the sport mapping table, so the reconciler can route
// a stored record back to its provider sport.
func leagueToKey(mappings map[string]config.SportMapping) map[string]string {
	m := make(map[string]string, len(mappings))
	for key, mapping := range mappings {
		m[mapping.League] = key
	}
	return m
}
