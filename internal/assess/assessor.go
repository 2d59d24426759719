// Package assess rates a completed snapshot via an OpenAI chat-completion
// call. The assessor always returns a value: any upstream failure collapses
// into a deterministic moderate assessment carrying the failure reason.
package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

const assessorName = "OpenAI GPT-4"

// Assessor calls the OpenAI chat-completions API.
type Assessor struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAssessor(client *http.Client, apiKey string) *Assessor {
	return &Assessor{
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
		baseURL: "https://api.openai.com/v1/chat/completions",
		timeout: 30 * time.Second,
		httpCfg: upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit: upstream.NewBreaker("openai"),
	}
}

func (a *Assessor) Name() string { return assessorName }

// Assess rates the snapshot. ok reports whether the rating came from the
// upstream; when false the returned assessment is the deterministic
// fallback and the assessor must not be listed as a contributing source.
func (a *Assessor) Assess(ctx context.Context, snap *environment.Snapshot) (*environment.QualityAssessment, bool) {
	if a.apiKey == "" {
		return fallbackAssessment("assessor api key is not configured"), false
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	assessment, err := a.invoke(ctx, snap)
	if err != nil {
		log.Warn().Str("provider", assessorName).Err(err).Msg("quality assessment failed")
		return fallbackAssessment(err.Error()), false
	}
	return assessment, true
}

func (a *Assessor) invoke(ctx context.Context, snap *environment.Snapshot) (*environment.QualityAssessment, error) {
	prompt := buildPrompt(snap)

	body, err := json.Marshal(map[string]any{
		"model":       a.model,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, a.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := upstream.Do(ctx, a.httpCfg, a.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return parseAssessment(payload.Choices[0].Message.Content)
}

func buildPrompt(snap *environment.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an environmental expert. Analyze the following environmental data and rate the environment quality.\n\n")
	fmt.Fprintf(&b, "Location: %s, %s (%.4f, %.4f)\n\n", snap.Location.City, snap.Location.Country, snap.Location.Lat, snap.Location.Lon)
	b.WriteString("ENVIRONMENTAL DATA:\n")

	lines := summarize(snap)
	if len(lines) == 0 {
		b.WriteString("No detailed environmental data available\n")
	} else {
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteString(`
Respond with JSON only, in this format:
{
    "overall_rating": "excellent|good|moderate|poor|hazardous",
    "score": <number 0-100>,
    "health_risk": "low|moderate|high|very_high",
    "summary": "<short summary of environmental quality>",
    "recommendations": ["<practical recommendations>"],
    "concerns": ["<notable concerns>"],
    "rationale": "<explanation of the rating>"
}

Base the rating on WHO and EPA standards: AQI above 100 is unhealthy and above 200 is dangerous, PM2.5 above 35 ug/m3 exceeds WHO guidance, water pH should be within 6.5-8.5, and noise above 55 dB by day or 40 dB by night is harmful.`)

	return b.String()
}

func summarize(snap *environment.Snapshot) []string {
	var lines []string

	if w := snap.Weather; w != nil {
		lines = append(lines, fmt.Sprintf("Weather: %s C, humidity %s%%, %s",
			num(w.Temperature), num(w.Humidity), text(w.Description)))
	}
	if a := snap.Air; a != nil {
		aqi := "N/A"
		if a.AQI != nil {
			aqi = fmt.Sprintf("%d", *a.AQI)
		}
		lines = append(lines, fmt.Sprintf("Air quality: AQI %s, PM2.5 %s ug/m3, level %s",
			aqi, num(a.PM25), text(a.QualityLevel)))
	}
	if w := snap.Water; w != nil {
		lines = append(lines, fmt.Sprintf("Water quality: pH %s, dissolved oxygen %s mg/L, level %s",
			num(w.PH), num(w.DissolvedOxygen), text(w.QualityLevel)))
	}
	if n := snap.Noise; n != nil {
		lines = append(lines, fmt.Sprintf("Noise: %s dB, level %s", num(n.Level), text(n.QualityLevel)))
	}
	if s := snap.Soil; s != nil {
		lines = append(lines, fmt.Sprintf("Soil: pH %s, moisture %s%%", num(s.PH), num(s.Moisture)))
	}
	if r := snap.Radiation; r != nil {
		lines = append(lines, fmt.Sprintf("Radiation: %s uSv/h, level %s", num(r.Level), text(r.QualityLevel)))
	}

	return lines
}

// parseAssessment tolerates markdown code fences and fills defaults for
// missing fields.
func parseAssessment(content string) (*environment.QualityAssessment, error) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var qa environment.QualityAssessment
	if err := json.Unmarshal([]byte(clean), &qa); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}

	if qa.OverallRating == "" {
		qa.OverallRating = "moderate"
	}
	if qa.Score == 0 {
		qa.Score = 50.0
	}
	if qa.HealthRisk == "" {
		qa.HealthRisk = "moderate"
	}
	if qa.Summary == "" {
		qa.Summary = "AI environmental assessment"
	}
	if qa.Recommendations == nil {
		qa.Recommendations = []string{}
	}
	if qa.Concerns == nil {
		qa.Concerns = []string{}
	}
	return &qa, nil
}

func fallbackAssessment(reason string) *environment.QualityAssessment {
	return &environment.QualityAssessment{
		OverallRating:   "moderate",
		Score:           50.0,
		HealthRisk:      "moderate",
		Summary:         "AI assessment unavailable",
		Recommendations: []string{"Retry later"},
		Concerns:        []string{"Assessment service error"},
		Rationale:       "Service error: " + reason,
	}
}

func num(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

func text(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
