package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// eventLookback bounds the event fetch window handed to the Source.
const eventLookback = 180 * 24 * time.Hour

// ErrNoRepositories is the fatal precondition raised when a profile fetch
// succeeds but the user owns no repositories. No metric is computed in that
// case.
var ErrNoRepositories = errors.New("no repositories found for this user")

// FetchError wraps a transport or upstream failure from the Source, keeping
// which of the three collections failed.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Source supplies the three raw collections an analysis run consumes. The
// transport behind it owns timeouts and credentials; the analyzer never
// retries a failed fetch.
type Source interface {
	FetchProfile(ctx context.Context, username string) (Profile, error)
	FetchRepositories(ctx context.Context, username string) ([]Repository, error)
	FetchRecentEvents(ctx context.Context, username string, since time.Time) ([]Event, error)
}

// Analyzer runs the full pipeline: fetch, metrics, composite score,
// feedback. Each call is independent and holds no state between runs.
type Analyzer struct {
	source Source
	engine *Engine
	now    func() time.Time
}

// NewAnalyzer creates an analyzer over the given source and engine.
func NewAnalyzer(source Source, engine *Engine) *Analyzer {
	return &Analyzer{
		source: source,
		engine: engine,
		now:    time.Now,
	}
}

// Analyze fetches the user's profile, repositories and recent events, then
// derives the result bundle. Any fetch failure or an empty repository list
// aborts the run with a wrapped analysis failure.
func (a *Analyzer) Analyze(ctx context.Context, username string) (Result, error) {
	now := a.now().UTC()

	profile, err := a.source.FetchProfile(ctx, username)
	if err != nil {
		return Result{}, wrapAnalysis(&FetchError{Collection: "profile", Err: err})
	}

	repos, err := a.source.FetchRepositories(ctx, username)
	if err != nil {
		return Result{}, wrapAnalysis(&FetchError{Collection: "repositories", Err: err})
	}

	events, err := a.source.FetchRecentEvents(ctx, username, now.Add(-eventLookback))
	if err != nil {
		return Result{}, wrapAnalysis(&FetchError{Collection: "events", Err: err})
	}

	if len(repos) == 0 {
		return Result{}, wrapAnalysis(ErrNoRepositories)
	}

	metrics, err := a.engine.ComputeMetrics(profile, repos, events, now)
	if err != nil {
		return Result{}, wrapAnalysis(err)
	}

	score := a.engine.ComposeScore(metrics)

	return Result{
		Score:           score,
		Metrics:         metrics,
		Strengths:       a.engine.Strengths(metrics),
		Weaknesses:      a.engine.Weaknesses(metrics),
		Recommendations: a.engine.Recommendations(metrics),
		Appreciation:    a.engine.Appreciation(score),
		AvatarURL:       profile.AvatarURL,
	}, nil
}

func wrapAnalysis(err error) error {
	return fmt.Errorf("analysis failed: %w", err)
}
