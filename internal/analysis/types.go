package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Profile holds account-level attributes for one user.
type Profile struct {
	Login     string `json:"login"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	AvatarURL string `json:"avatar_url"`
}

// Repository holds metadata for one owned or forked project. An empty
// Language or Description means the platform reported none; the metric
// functions treat both null and empty the same way.
type Repository struct {
	Name            string   `json:"name"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	ForksCount      int      `json:"forks_count"`
	Fork            bool     `json:"fork"`
	HasWiki         bool     `json:"has_wiki"`
	Description     string   `json:"description"`
	HasIssues       bool     `json:"has_issues"`
	StargazersCount int      `json:"stargazers_count"`
	Size            int      `json:"size"`
	UpdatedAt       string   `json:"updated_at"`
}

// Event is a single timestamped activity entry (push, issue, comment, etc.).
type Event struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// Metrics holds the five normalized [0,1] dimension scores.
type Metrics struct {
	Activity      float64 `json:"activity"`
	Diversity     float64 `json:"diversity"`
	Community     float64 `json:"community"`
	Documentation float64 `json:"documentation"`
	CodeQuality   float64 `json:"code_quality"`
}

// Map returns the metrics keyed by their canonical names.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"activity":      m.Activity,
		"diversity":     m.Diversity,
		"community":     m.Community,
		"documentation": m.Documentation,
		"code_quality":  m.CodeQuality,
	}
}

// Result is the full bundle produced by one analysis run.
type Result struct {
	Score           float64  `json:"score"`
	Metrics         Metrics  `json:"metrics"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	Appreciation    string   `json:"appreciation"`
	AvatarURL       string   `json:"avatar_url"`
}

// parseTimestamp parses the platform's date-time strings. Full RFC3339 is
// accepted, as is the bare "2006-01-02T15:04:05" form with the UTC suffix
// already stripped; anything else is a hard error so malformed input fails
// here instead of deep inside a metric.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	bare := strings.TrimSuffix(value, "Z")
	if t, err := time.Parse("2006-01-02T15:04:05", bare); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("malformed timestamp %q", value)
}
