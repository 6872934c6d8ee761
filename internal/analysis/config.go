package analysis

import (
	"fmt"
	"math"
	"time"
)

// Weights is the fixed weight table applied by the score composer. The five
// values must sum to 1.0.
type Weights struct {
	Activity      float64 `json:"activity"`
	Diversity     float64 `json:"diversity"`
	Community     float64 `json:"community"`
	Documentation float64 `json:"documentation"`
	CodeQuality   float64 `json:"code_quality"`
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Activity + w.Diversity + w.Community + w.Documentation + w.CodeQuality
}

// Config collects every threshold, cap and window the engine uses so tests
// can exercise boundaries without re-deriving magic numbers.
type Config struct {
	Weights Weights `json:"weights"`

	// Activity metric
	RecentEventWindow time.Duration `json:"recent_event_window"` // events counted inside this window
	RecentRepoWindow  time.Duration `json:"recent_repo_window"`  // repo updates counted inside this window
	MaxRecentEvents   float64       `json:"max_recent_events"`   // events needed for a full event score

	// Diversity metric
	MaxLanguages float64 `json:"max_languages"` // distinct languages for a full language score
	MaxTopics    float64 `json:"max_topics"`    // distinct topics for a full topic score

	// Community metric
	MaxFollowers float64 `json:"max_followers"`
	MaxFollowing float64 `json:"max_following"`
	ForksPerRepo float64 `json:"forks_per_repo"` // average forks per repo for a full fork score

	// Documentation metric
	MinDescriptionLen int `json:"min_description_len"` // chars beyond which a description counts as substantial

	// Code quality metric
	MaxAvgStars   float64 `json:"max_avg_stars"`
	SmallRepoSize int     `json:"small_repo_size"` // below this size a repo scores 1.0
	LargeRepoSize int     `json:"large_repo_size"` // below this size a repo scores 0.5, above 0.0

	// Feedback thresholds
	StrengthThreshold       float64 `json:"strength_threshold"`       // >= is a strength
	WeaknessThreshold       float64 `json:"weakness_threshold"`       // <= is a weakness
	RecommendationThreshold float64 `json:"recommendation_threshold"` // strictly below triggers a recommendation
}

// DefaultConfig returns the standard calibration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Activity:      0.30,
			Diversity:     0.20,
			Community:     0.20,
			Documentation: 0.15,
			CodeQuality:   0.15,
		},
		RecentEventWindow:       30 * 24 * time.Hour,
		RecentRepoWindow:        90 * 24 * time.Hour,
		MaxRecentEvents:         30,
		MaxLanguages:            5,
		MaxTopics:               10,
		MaxFollowers:            100,
		MaxFollowing:            50,
		ForksPerRepo:            5,
		MinDescriptionLen:       20,
		MaxAvgStars:             10,
		SmallRepoSize:           1000,
		LargeRepoSize:           5000,
		StrengthThreshold:       0.7,
		WeaknessThreshold:       0.3,
		RecommendationThreshold: 0.4,
	}
}

// Validate checks the configuration invariants, most importantly that the
// weight table sums to exactly 1.0 (within floating point tolerance).
func (c Config) Validate() error {
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("metric weights must sum to 1.0, got %v", sum)
	}
	if c.RecentEventWindow <= 0 || c.RecentRepoWindow <= 0 {
		return fmt.Errorf("recency windows must be positive")
	}
	if c.MaxRecentEvents <= 0 || c.MaxLanguages <= 0 || c.MaxTopics <= 0 ||
		c.MaxFollowers <= 0 || c.MaxFollowing <= 0 || c.ForksPerRepo <= 0 || c.MaxAvgStars <= 0 {
		return fmt.Errorf("normalization caps must be positive")
	}
	if c.SmallRepoSize <= 0 || c.LargeRepoSize <= c.SmallRepoSize {
		return fmt.Errorf("repo size bands must be positive and ordered")
	}
	return nil
}
