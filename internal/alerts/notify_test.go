package alerts

import (
	"testing"
	"time"
)

func TestCheckCooldown(t *testing.T) {
	n := NewNotifier(time.Hour)

	if n.checkCooldown("result-g1") {
		t.Error("first alert suppressed")
	}
	if !n.checkCooldown("result-g1") {
		t.Error("repeat alert within cooldown not suppressed")
	}
	if n.checkCooldown("result-g2") {
		t.Error("different key suppressed")
	}
}

func TestCheckCooldownExpires(t *testing.T) {
	n := NewNotifier(time.Millisecond)

	n.checkCooldown("result-g1")
	time.Sleep(5 * time.Millisecond)

	if n.checkCooldown("result-g1") {
		t.Error("alert suppressed after cooldown expired")
	}
}

func TestCleanupOldAlerts(t *testing.T) {
	n := NewNotifier(time.Hour)
	n.checkCooldown("fresh")
	n.lastAlerts["stale"] = time.Now().Add(-25 * time.Hour)

	n.CleanupOldAlerts()

	if _, ok := n.lastAlerts["stale"]; ok {
		t.Error("stale alert survived cleanup")
	}
	if _, ok := n.lastAlerts["fresh"]; !ok {
		t.Error("fresh alert removed by cleanup")
	}
}
