package alerts

import (
	"log"
	"sync"
	"time"

	"moneyline-tracker/internal/store"
)

// Notifier handles operational log notifications with per-key deduplication.
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
}

// NewNotifier creates a new notifier.
func NewNotifier(cooldown time.Duration) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
	}
}

// checkCooldown records key and reports whether the alert should be
// suppressed because the same key fired within the cooldown.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return true
		}
	}
	n.lastAlerts[key] = time.Now()
	return false
}

// AlertResult announces a freshly settled game. Deduplicated by game ID so
// overlapping reconcile runs log each outcome once.
func (n *Notifier) AlertResult(rec store.GameRecord) {
	if n.checkCooldown("result-" + rec.GameID) {
		return
	}

	home, away := 0, 0
	if rec.Result.HomeScore != nil {
		home = *rec.Result.HomeScore
	}
	if rec.Result.AwayScore != nil {
		away = *rec.Result.AwayScore
	}

	outcome := "draw"
	if rec.Result.Winner != nil {
		outcome = "winner=" + *rec.Result.Winner
	}

	log.Printf("FINAL [%s]: %s %d - %d %s | %s",
		rec.League, rec.Home.Name, home, away, rec.Away.Name, outcome)
}

// LogFetch logs a per-sport fetch summary.
func (n *Notifier) LogFetch(sportKey string, fetched, stored int) {
	log.Printf("Fetch [%s]: %d events, %d stored", sportKey, fetched, stored)
}

// LogReconcile logs a reconcile run summary.
func (n *Notifier) LogReconcile(unresolved, settled int) {
	log.Printf("Reconcile: %d unresolved, %d settled", unresolved, settled)
}

// LogError logs an error.
func (n *Notifier) LogError(context string, err error) {
	log.Printf("ERROR [%s]: %v", context, err)
}

// LogStartup logs tracker startup.
func (n *Notifier) LogStartup(config string) {
	log.Printf("Tracker started |%s", config)
}

// CleanupOldAlerts removes stale alert records.
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-24 * time.Hour)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
