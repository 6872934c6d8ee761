package analysis

import (
	"fmt"
	"time"
)

// Blend weights inside the individual metrics. These are part of the metric
// definitions rather than user-tunable calibration, so they live here and
// not in Config.
const (
	activityEventWeight = 0.6
	activityRepoWeight  = 0.4

	diversityLanguageWeight = 0.7
	diversityTopicWeight    = 0.3

	communityFollowerWeight  = 0.3
	communityFollowingWeight = 0.2
	communityForkWeight      = 0.3
	communityCollabWeight    = 0.2

	documentationReadmeWeight      = 0.5
	documentationWikiWeight        = 0.3
	documentationDescriptionWeight = 0.2

	codeQualityStarWeight  = 0.4
	codeQualityIssueWeight = 0.3
	codeQualitySizeWeight  = 0.3
)

// Engine computes the five profile health sub-metrics. It is stateless and
// side-effect-free; every method only reads its inputs, so a single Engine is
// safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ComputeMetrics evaluates all five sub-metrics against a single "now"
// reference so repeated calls over frozen inputs are byte-identical.
func (e *Engine) ComputeMetrics(profile Profile, repos []Repository, events []Event, now time.Time) (Metrics, error) {
	activity, err := e.ActivityScore(events, repos, now)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Activity:      activity,
		Diversity:     e.DiversityScore(repos),
		Community:     e.CommunityScore(profile, repos),
		Documentation: e.DocumentationScore(repos),
		CodeQuality:   e.CodeQualityScore(repos),
	}, nil
}

// ActivityScore blends short-horizon contribution velocity (events in the
// last 30 days) with medium-horizon project upkeep (repos updated in the last
// 90 days) so a single recent burst cannot dominate. An empty event
// collection yields 0.0 rather than an error.
func (e *Engine) ActivityScore(events []Event, repos []Repository, now time.Time) (float64, error) {
	if len(events) == 0 {
		return 0.0, nil
	}

	eventCutoff := now.Add(-e.cfg.RecentEventWindow)
	recentEvents := 0
	for _, ev := range events {
		ts, err := parseTimestamp(ev.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("event timestamp: %w", err)
		}
		if ts.After(eventCutoff) {
			recentEvents++
		}
	}

	repoCutoff := now.Add(-e.cfg.RecentRepoWindow)
	recentRepos := 0
	for _, repo := range repos {
		ts, err := parseTimestamp(repo.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("repository %q updated_at: %w", repo.Name, err)
		}
		if ts.After(repoCutoff) {
			recentRepos++
		}
	}

	eventScore := clamp01(float64(recentEvents) / e.cfg.MaxRecentEvents)

	repoScore := 0.0
	if len(repos) > 0 {
		repoScore = clamp01(float64(recentRepos) / float64(len(repos)))
	}

	return activityEventWeight*eventScore + activityRepoWeight*repoScore, nil
}

// DiversityScore rewards breadth: distinct languages across repositories and
// distinct topics with duplicates collapsed.
func (e *Engine) DiversityScore(repos []Repository) float64 {
	if len(repos) == 0 {
		return 0.0
	}

	languages := make(map[string]struct{})
	topics := make(map[string]struct{})
	for _, repo := range repos {
		if repo.Language != "" {
			languages[repo.Language] = struct{}{}
		}
		for _, topic := range repo.Topics {
			topics[topic] = struct{}{}
		}
	}

	languageScore := clamp01(float64(len(languages)) / e.cfg.MaxLanguages)
	topicScore := clamp01(float64(len(topics)) / e.cfg.MaxTopics)

	return diversityLanguageWeight*languageScore + diversityTopicWeight*topicScore
}

// CommunityScore combines follower/following reach with fork volume and the
// share of repositories that are themselves forks (a proxy for
// collaboration).
func (e *Engine) CommunityScore(profile Profile, repos []Repository) float64 {
	followerScore := clamp01(float64(profile.Followers) / e.cfg.MaxFollowers)
	followingScore := clamp01(float64(profile.Following) / e.cfg.MaxFollowing)

	forkScore := 0.0
	collabScore := 0.0
	if len(repos) > 0 {
		totalForks := 0
		collaborations := 0
		for _, repo := range repos {
			totalForks += repo.ForksCount
			if repo.Fork {
				collaborations++
			}
		}
		forkScore = clamp01(float64(totalForks) / (float64(len(repos)) * e.cfg.ForksPerRepo))
		collabScore = clamp01(float64(collaborations) / float64(len(repos)))
	}

	return communityFollowerWeight*followerScore +
		communityFollowingWeight*followingScore +
		communityForkWeight*forkScore +
		communityCollabWeight*collabScore
}

// DocumentationScore counts wikis, substantial descriptions, and assumes a
// repository with any description likely carries a README. The README signal
// is a deliberate proxy; checking for the actual file would need one extra
// API call per repository.
func (e *Engine) DocumentationScore(repos []Repository) float64 {
	if len(repos) == 0 {
		return 0.0
	}

	readmeCount := 0
	wikiCount := 0
	descriptionCount := 0
	for _, repo := range repos {
		if repo.HasWiki {
			wikiCount++
		}
		if len(repo.Description) > e.cfg.MinDescriptionLen {
			descriptionCount++
		}
		if repo.Description != "" {
			readmeCount++
		}
	}

	total := float64(len(repos))
	readmeScore := float64(readmeCount) / total
	wikiScore := float64(wikiCount) / total
	descriptionScore := float64(descriptionCount) / total

	return documentationReadmeWeight*readmeScore +
		documentationWikiWeight*wikiScore +
		documentationDescriptionWeight*descriptionScore
}

// CodeQualityScore uses average stars, issue tracking adoption, and repo size
// (smaller repositories tend to be better maintained) as maintainability
// proxies.
func (e *Engine) CodeQualityScore(repos []Repository) float64 {
	if len(repos) == 0 {
		return 0.0
	}

	totalStars := 0
	issuesEnabled := 0
	sizeScore := 0.0
	for _, repo := range repos {
		totalStars += repo.StargazersCount
		if repo.HasIssues {
			issuesEnabled++
		}
		switch {
		case repo.Size < e.cfg.SmallRepoSize:
			sizeScore += 1.0
		case repo.Size < e.cfg.LargeRepoSize:
			sizeScore += 0.5
		}
	}

	total := float64(len(repos))
	avgStars := float64(totalStars) / total
	starScore := clamp01(avgStars / e.cfg.MaxAvgStars)
	issueScore := float64(issuesEnabled) / total
	sizeScore = sizeScore / total

	return codeQualityStarWeight*starScore +
		codeQualityIssueWeight*issueScore +
		codeQualitySizeWeight*sizeScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
