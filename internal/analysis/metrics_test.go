package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return engine
}

func stamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func daysAgo(days int) string {
	return stamp(testNow.AddDate(0, 0, -days))
}

func repoUpdatedDaysAgo(days int) Repository {
	return Repository{Name: "repo", UpdatedAt: daysAgo(days)}
}

func eventsDaysAgo(count, days int) []Event {
	events := make([]Event, count)
	for i := range events {
		events[i] = Event{Type: "PushEvent", CreatedAt: daysAgo(days)}
	}
	return events
}

func TestActivityScore(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		events   []Event
		repos    []Repository
		expected float64
	}{
		{
			name:     "empty events short-circuits to zero",
			events:   nil,
			repos:    []Repository{repoUpdatedDaysAgo(1)},
			expected: 0.0,
		},
		{
			name:     "recent events with no repos uses only event term",
			events:   eventsDaysAgo(15, 5),
			repos:    nil,
			expected: 0.6 * (15.0 / 30.0),
		},
		{
			name:     "stale events with recent repos uses only repo term",
			events:   eventsDaysAgo(10, 60),
			repos:    []Repository{repoUpdatedDaysAgo(10), repoUpdatedDaysAgo(200)},
			expected: 0.4 * 0.5,
		},
		{
			name:     "event term caps at thirty events",
			events:   eventsDaysAgo(90, 2),
			repos:    []Repository{repoUpdatedDaysAgo(5)},
			expected: 0.6*1.0 + 0.4*1.0,
		},
		{
			name:     "blends event and repo recency",
			events:   eventsDaysAgo(15, 10),
			repos:    []Repository{repoUpdatedDaysAgo(30), repoUpdatedDaysAgo(30), repoUpdatedDaysAgo(120), repoUpdatedDaysAgo(365)},
			expected: 0.6*0.5 + 0.4*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ActivityScore(tt.events, tt.repos, testNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, result, 1e-9)
			assert.GreaterOrEqual(t, result, 0.0)
			assert.LessOrEqual(t, result, 1.0)
		})
	}
}

func TestActivityScoreMalformedTimestamps(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("malformed event timestamp", func(t *testing.T) {
		_, err := engine.ActivityScore([]Event{{CreatedAt: "yesterday"}}, nil, testNow)
		assert.ErrorContains(t, err, "malformed timestamp")
	})

	t.Run("malformed repo timestamp", func(t *testing.T) {
		repos := []Repository{{Name: "bad", UpdatedAt: "2026-13-45"}}
		_, err := engine.ActivityScore(eventsDaysAgo(1, 1), repos, testNow)
		assert.ErrorContains(t, err, `repository "bad"`)
	})

	t.Run("bare UTC suffix form accepted", func(t *testing.T) {
		events := []Event{{CreatedAt: "2026-01-14T09:30:00Z"}}
		score, err := engine.ActivityScore(events, nil, testNow)
		require.NoError(t, err)
		assert.InDelta(t, 0.6*(1.0/30.0), score, 1e-9)
	})
}

func TestDiversityScore(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		repos    []Repository
		expected float64
	}{
		{
			name:     "empty repositories",
			repos:    nil,
			expected: 0.0,
		},
		{
			name:     "single language no topics",
			repos:    []Repository{{Language: "Go"}},
			expected: 0.7 * (1.0 / 5.0),
		},
		{
			name: "duplicate languages and topics collapse",
			repos: []Repository{
				{Language: "Go", Topics: []string{"cli", "web"}},
				{Language: "Go", Topics: []string{"web", "api"}},
				{Language: "Rust", Topics: []string{"cli"}},
			},
			expected: 0.7*(2.0/5.0) + 0.3*(3.0/10.0),
		},
		{
			name: "missing language is skipped",
			repos: []Repository{
				{Language: ""},
				{Language: "Python"},
			},
			expected: 0.7 * (1.0 / 5.0),
		},
		{
			name: "scores cap at one",
			repos: []Repository{
				{Language: "Go", Topics: []string{"a", "b", "c", "d", "e", "f"}},
				{Language: "Rust", Topics: []string{"g", "h", "i", "j", "k"}},
				{Language: "Python"},
				{Language: "C"},
				{Language: "Zig"},
				{Language: "Elixir"},
			},
			expected: 0.7*1.0 + 0.3*1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.DiversityScore(tt.repos)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestCommunityScore(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		profile  Profile
		repos    []Repository
		expected float64
	}{
		{
			name:     "zero profile with no repos",
			profile:  Profile{},
			repos:    nil,
			expected: 0.0,
		},
		{
			name:     "followers and following only",
			profile:  Profile{Followers: 50, Following: 25},
			repos:    nil,
			expected: 0.3*0.5 + 0.2*0.5,
		},
		{
			name:    "fork volume and collaborations",
			profile: Profile{},
			repos: []Repository{
				{ForksCount: 5, Fork: true},
				{ForksCount: 5, Fork: false},
			},
			expected: 0.3*1.0 + 0.2*0.5,
		},
		{
			name:    "all terms cap at one",
			profile: Profile{Followers: 1000, Following: 500},
			repos: []Repository{
				{ForksCount: 100, Fork: true},
			},
			expected: 0.3 + 0.2 + 0.3 + 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CommunityScore(tt.profile, tt.repos)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestDocumentationScore(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		repos    []Repository
		expected float64
	}{
		{
			name:     "empty repositories",
			repos:    nil,
			expected: 0.0,
		},
		{
			name: "short description counts for readme proxy only",
			repos: []Repository{
				{Description: "tiny"},
			},
			expected: 0.5 * 1.0,
		},
		{
			name: "substantial description counts twice",
			repos: []Repository{
				{Description: "a description well over twenty characters long"},
			},
			expected: 0.5*1.0 + 0.2*1.0,
		},
		{
			name: "wiki only",
			repos: []Repository{
				{HasWiki: true},
			},
			expected: 0.3 * 1.0,
		},
		{
			name: "mixed repositories average per signal",
			repos: []Repository{
				{HasWiki: true, Description: "a description well over twenty characters long"},
				{},
			},
			expected: 0.5*0.5 + 0.3*0.5 + 0.2*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.DocumentationScore(tt.repos)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestCodeQualityScore(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		repos    []Repository
		expected float64
	}{
		{
			name:     "empty repositories",
			repos:    nil,
			expected: 0.0,
		},
		{
			name: "small repo with no stars or issues",
			repos: []Repository{
				{Size: 500},
			},
			expected: 0.3 * 1.0,
		},
		{
			name: "size bands",
			repos: []Repository{
				{Size: 999},
				{Size: 1000},
				{Size: 4999},
				{Size: 5000},
			},
			expected: 0.3 * ((1.0 + 0.5 + 0.5 + 0.0) / 4.0),
		},
		{
			name: "average stars cap at ten",
			repos: []Repository{
				{StargazersCount: 100, Size: 9000},
			},
			expected: 0.4 * 1.0,
		},
		{
			name: "issue tracking fraction",
			repos: []Repository{
				{HasIssues: true, Size: 9000},
				{HasIssues: false, Size: 9000},
			},
			expected: 0.3 * 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CodeQualityScore(tt.repos)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestComputeMetricsAllWithinUnitInterval(t *testing.T) {
	engine := newTestEngine(t)

	profile := Profile{Followers: 420, Following: 9000}
	repos := []Repository{
		{Language: "Go", Topics: []string{"cli"}, ForksCount: 80, Fork: true, HasWiki: true,
			Description: "a description well over twenty characters long", HasIssues: true,
			StargazersCount: 5000, Size: 120, UpdatedAt: daysAgo(3)},
		{Language: "Rust", ForksCount: 1, Size: 80000, UpdatedAt: daysAgo(700)},
	}
	events := eventsDaysAgo(500, 1)

	metrics, err := engine.ComputeMetrics(profile, repos, events, testNow)
	require.NoError(t, err)

	for name, value := range metrics.Map() {
		assert.GreaterOrEqual(t, value, 0.0, name)
		assert.LessOrEqual(t, value, 1.0, name)
	}
}
