package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moneyline-tracker/internal/config"
	"moneyline-tracker/internal/query"
	"moneyline-tracker/internal/stats"
	"moneyline-tracker/internal/store"
)

func newTestServer(t *testing.T, translator query.Translator) (http.Handler, *store.SQLite) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(st, stats.NewAnalyzer(st), translator, query.NewSchema(config.Sports)).Router(), st
}

func seedGame(t *testing.T, st *store.SQLite, id string, completed bool) {
	t.Helper()

	rec := store.GameRecord{
		GameID:      id,
		Sport:       "Basketball",
		League:      "NBA",
		EventDate:   time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC),
		Home:        store.TeamLine{Name: "Lakers", Moneyline: -200},
		Away:        store.TeamLine{Name: "Celtics", Moneyline: 170},
		Status:      store.StatusInProgress,
		LastUpdated: time.Now().UTC(),
	}
	if err := st.UpsertGame(context.Background(), rec); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	if completed {
		winner := "Lakers"
		if err := st.SetResult(context.Background(), id, 110, 102, &winner, false); err != nil {
			t.Fatalf("seed SetResult: %v", err)
		}
	}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestGames(t *testing.T) {
	h, st := newTestServer(t, nil)
	seedGame(t, st, "g1", true)
	seedGame(t, st, "g2", false)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantCount int
	}{
		{"all games", "/api/v1/games", http.StatusOK, 2},
		{"by status", "/api/v1/games?status=Completed", http.StatusOK, 1},
		{"by team case-insensitive", "/api/v1/games?team=lakers", http.StatusOK, 2},
		{"by winner", "/api/v1/games?winner=Lakers", http.StatusOK, 1},
		{"no matches", "/api/v1/games?team=Warriors", http.StatusOK, 0},
		{"unknown status", "/api/v1/games?status=Finished", http.StatusBadRequest, 0},
		{"bad from date", "/api/v1/games?from=yesterday", http.StatusBadRequest, 0},
		{"bad limit", "/api/v1/games?limit=abc", http.StatusBadRequest, 0},
		{"limit with trailing garbage", "/api/v1/games?limit=10abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, tt.target, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var body struct {
				Games []store.GameRecord `json:"games"`
				Count int                `json:"count"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Games) != tt.wantCount {
				t.Errorf("count = %d (%d games), want %d", body.Count, len(body.Games), tt.wantCount)
			}
		})
	}
}

func TestTeams(t *testing.T) {
	h, st := newTestServer(t, nil)
	seedGame(t, st, "g1", false)

	w := doRequest(t, h, http.MethodGet, "/api/v1/teams", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Teams []string `json:"teams"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2: %v", body.Count, body.Teams)
	}
}

func TestStats(t *testing.T) {
	h, st := newTestServer(t, nil)
	seedGame(t, st, "g1", true)

	w := doRequest(t, h, http.MethodGet, "/api/v1/stats/Lakers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var s stats.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if s.TotalFavoredGames != 1 || s.FavoredWinRate != 100 {
		t.Errorf("stats = %+v", s)
	}

	// Unknown team degrades to zeroed stats, not an error.
	w = doRequest(t, h, http.MethodGet, "/api/v1/stats/Warriors", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown team status = %d, want 200", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/stats/Lakers?as_of=notadate", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad as_of status = %d, want 400", w.Code)
	}
}

type fakeTranslator struct {
	spec query.Spec
	err  error
}

func (f fakeTranslator) Translate(_ context.Context, _ string) (query.Spec, error) {
	return f.spec, f.err
}

func TestQuery(t *testing.T) {
	h, st := newTestServer(t, fakeTranslator{spec: query.Spec{Team: "Lakers", Status: "Completed"}})
	seedGame(t, st, "g1", true)
	seedGame(t, st, "g2", false)

	w := doRequest(t, h, http.MethodPost, "/api/v1/query", `{"q": "completed Lakers games"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestQueryWithoutTranslator(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodPost, "/api/v1/query", `{"q": "anything"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestQueryRejectsInvalidTranslation(t *testing.T) {
	// The model hallucinated a status outside the schema.
	h, _ := newTestServer(t, fakeTranslator{spec: query.Spec{Status: "Finished"}})

	w := doRequest(t, h, http.MethodPost, "/api/v1/query", `{"q": "finished games"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestQueryBadBody(t *testing.T) {
	h, _ := newTestServer(t, fakeTranslator{})

	for _, body := range []string{"", "{}", "not json"} {
		w := doRequest(t, h, http.MethodPost, "/api/v1/query", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}
