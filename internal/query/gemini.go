package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-pro"
	geminiTimeout = 30 * time.Second
)

const geminiSystemPrompt = `You translate natural language questions about sporting
events into a JSON filter object. The object may contain only these fields:
"team" (string), "sport" (string), "league" (string),
"status" ("Scheduled", "InProgress" or "Completed"),
"winner" (team name string), "from" and "to" (RFC 3339 timestamps),
"limit" (number), "sort_desc" (boolean).
Respond with the JSON object only, nothing else.`

// GeminiTranslator translates free text into a query spec via the Gemini
// REST API. Its output is untrusted; callers must Validate the spec.
type GeminiTranslator struct {
	// BaseURL can be overridden for tests.
	BaseURL string

	apiKey string
	client *http.Client
}

// NewGeminiTranslator creates a translator using the given API key.
func NewGeminiTranslator(apiKey string) *GeminiTranslator {
	return &GeminiTranslator{
		BaseURL: geminiBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: geminiTimeout},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Translate sends the prompt to the model and parses its reply as a Spec.
func (g *GeminiTranslator) Translate(ctx context.Context, text string) (Spec, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: geminiSystemPrompt + "\n\nUser query: " + text}},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Spec{}, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, geminiModel, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Spec{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Spec{}, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return Spec{}, fmt.Errorf("model returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Spec{}, fmt.Errorf("decoding model response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Spec{}, fmt.Errorf("model returned no candidates")
	}

	return parseSpecJSON(parsed.Candidates[0].Content.Parts[0].Text)
}

// parseSpecJSON extracts the JSON object from a model reply, tolerating
// markdown code fences around it.
func parseSpecJSON(text string) (Spec, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var spec Spec
	if err := json.Unmarshal([]byte(text), &spec); err != nil {
		return Spec{}, fmt.Errorf("parsing model output: %w", err)
	}
	return spec, nil
}
