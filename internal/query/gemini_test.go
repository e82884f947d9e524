package query

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseSpecJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Spec
		wantErr bool
	}{
		{
			name: "bare json",
			text: `{"team": "Lakers", "status": "Completed"}`,
			want: Spec{Team: "Lakers", Status: "Completed"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"team\": \"Lakers\"}\n```",
			want: Spec{Team: "Lakers"},
		},
		{
			name: "fence without language tag",
			text: "```\n{\"limit\": 5}\n```",
			want: Spec{Limit: 5},
		},
		{
			name:    "prose instead of json",
			text:    "Sure! Here are the games you asked about.",
			wantErr: true,
		},
		{
			name:    "empty reply",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSpecJSON(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSpecJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseSpecJSON() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGeminiTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "{\"team\": \"Lakers\", \"status\": \"Completed\"}"}]}}
			]
		}`))
	}))
	defer srv.Close()

	g := NewGeminiTranslator("test-key")
	g.BaseURL = srv.URL

	spec, err := g.Translate(context.Background(), "how did the Lakers do?")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if spec.Team != "Lakers" || spec.Status != "Completed" {
		t.Errorf("spec = %+v", spec)
	}
}

func TestGeminiTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"http error", `{"error": "quota"}`, http.StatusTooManyRequests},
		{"no candidates", `{"candidates": []}`, http.StatusOK},
		{"malformed body", `{{{`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGeminiTranslator("test-key")
			g.BaseURL = srv.URL

			if _, err := g.Translate(context.Background(), "anything"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
