package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns canned collections or errors per call.
type fakeSource struct {
	profile     Profile
	profileErr  error
	repos       []Repository
	reposErr    error
	events      []Event
	eventsErr   error
	eventsSince time.Time
}

func (f *fakeSource) FetchProfile(ctx context.Context, username string) (Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeSource) FetchRepositories(ctx context.Context, username string) ([]Repository, error) {
	return f.repos, f.reposErr
}

func (f *fakeSource) FetchRecentEvents(ctx context.Context, username string, since time.Time) ([]Event, error) {
	f.eventsSince = since
	return f.events, f.eventsErr
}

func newTestAnalyzer(t *testing.T, source Source) *Analyzer {
	t.Helper()
	analyzer := NewAnalyzer(source, newTestEngine(t))
	analyzer.now = func() time.Time { return testNow }
	return analyzer
}

func TestAnalyzeHappyPath(t *testing.T) {
	source := &fakeSource{
		profile: Profile{Login: "octocat", Followers: 50, Following: 25, AvatarURL: "https://avatars.example/u/1"},
		repos: []Repository{
			{Name: "one", Language: "Go", Topics: []string{"cli"}, ForksCount: 10, HasWiki: true,
				Description: "a description well over twenty characters long", HasIssues: true,
				StargazersCount: 20, Size: 500, UpdatedAt: daysAgo(10)},
			{Name: "two", Language: "Rust", Fork: true, Size: 2000, UpdatedAt: daysAgo(400)},
		},
		events: eventsDaysAgo(15, 5),
	}

	result, err := newTestAnalyzer(t, source).Analyze(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "https://avatars.example/u/1", result.AvatarURL)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 10.0)
	assert.NotEmpty(t, result.Strengths)
	assert.NotEmpty(t, result.Weaknesses)
	assert.NotEmpty(t, result.Recommendations)
	assert.NotEmpty(t, result.Appreciation)

	for name, value := range result.Metrics.Map() {
		assert.GreaterOrEqual(t, value, 0.0, name)
		assert.LessOrEqual(t, value, 1.0, name)
	}

	// The event fetch window is bounded relative to the single "now"
	// reference taken for the run.
	assert.Equal(t, testNow.Add(-eventLookback), source.eventsSince)
}

func TestAnalyzeEmptyRepositoriesIsFatal(t *testing.T) {
	source := &fakeSource{
		profile: Profile{Login: "ghost"},
		repos:   nil,
		events:  eventsDaysAgo(5, 1),
	}

	_, err := newTestAnalyzer(t, source).Analyze(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRepositories)
	assert.ErrorContains(t, err, "analysis failed")
}

func TestAnalyzeFetchFailures(t *testing.T) {
	upstream := errors.New("api.github.com: 503 service unavailable")

	tests := []struct {
		name       string
		source     *fakeSource
		collection string
	}{
		{
			name:       "profile fetch fails",
			source:     &fakeSource{profileErr: upstream},
			collection: "profile",
		},
		{
			name:       "repository fetch fails",
			source:     &fakeSource{reposErr: upstream},
			collection: "repositories",
		},
		{
			name:       "event fetch fails",
			source:     &fakeSource{repos: []Repository{{Name: "r", UpdatedAt: daysAgo(1)}}, eventsErr: upstream},
			collection: "events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAnalyzer(t, tt.source).Analyze(context.Background(), "someone")
			require.Error(t, err)

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.collection, fetchErr.Collection)
			assert.ErrorIs(t, err, upstream)
			assert.ErrorContains(t, err, "analysis failed")
		})
	}
}

func TestAnalyzeToleratesEmptyEvents(t *testing.T) {
	source := &fakeSource{
		profile: Profile{Login: "quiet"},
		repos:   []Repository{{Name: "r", Language: "Go", Size: 100, UpdatedAt: daysAgo(5)}},
		events:  nil,
	}

	result, err := newTestAnalyzer(t, source).Analyze(context.Background(), "quiet")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Metrics.Activity)
}

func TestAnalyzeMalformedTimestampSurfaces(t *testing.T) {
	source := &fakeSource{
		profile: Profile{Login: "broken"},
		repos:   []Repository{{Name: "r", UpdatedAt: "not-a-date"}},
		events:  eventsDaysAgo(1, 1),
	}

	_, err := newTestAnalyzer(t, source).Analyze(context.Background(), "broken")
	require.Error(t, err)
	assert.ErrorContains(t, err, "malformed timestamp")
}

func TestAnalyzeIsIdempotentOverFrozenInputs(t *testing.T) {
	source := &fakeSource{
		profile: Profile{Login: "stable", Followers: 10, AvatarURL: "https://avatars.example/u/2"},
		repos: []Repository{
			{Name: "a", Language: "Go", StargazersCount: 3, Size: 900, UpdatedAt: daysAgo(7)},
			{Name: "b", Language: "Python", Description: "short", Size: 3000, UpdatedAt: daysAgo(120)},
		},
		events: eventsDaysAgo(8, 3),
	}
	analyzer := newTestAnalyzer(t, source)

	first, err := analyzer.Analyze(context.Background(), "stable")
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), "stable")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
