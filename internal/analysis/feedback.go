package analysis

import "fmt"

// metricOrder fixes the iteration order for feedback lists so output is
// deterministic across runs.
var metricOrder = []string{"activity", "diversity", "community", "documentation", "code_quality"}

const (
	noStrengthsMessage  = "No significant strengths identified"
	noWeaknessesMessage = "No significant weaknesses identified"
	balancedMessage     = "Keep doing what you're doing! Your profile is well-balanced"
)

var recommendationMessages = map[string]string{
	"activity":      "Increase your activity by making regular commits and repository updates",
	"diversity":     "Expand your skill set by working with different programming languages",
	"community":     "Engage more with the community by contributing to other projects and following developers",
	"documentation": "Improve documentation by adding README files, wikis, and clear descriptions",
	"code_quality":  "Focus on code quality by creating smaller, focused repositories with good issue tracking",
}

var appreciationTiers = []struct {
	minScore float64
	message  string
}{
	{8, "Outstanding GitHub Profile! 🎉"},
	{6, "Great GitHub Profile! 👍"},
	{4, "Good Start! Keep Improving! 💪"},
	{0, "Your GitHub Journey Has Just Begun! 🚀"},
}

// Strengths lists every metric at or above the strength threshold, or a
// single placeholder when none qualify.
func (e *Engine) Strengths(m Metrics) []string {
	values := m.Map()
	strengths := make([]string, 0, len(metricOrder))
	for _, name := range metricOrder {
		if v := values[name]; v >= e.cfg.StrengthThreshold {
			strengths = append(strengths, fmt.Sprintf("Strong %s (%.0f%%)", displayName(name), v*100))
		}
	}
	if len(strengths) == 0 {
		return []string{noStrengthsMessage}
	}
	return strengths
}

// Weaknesses lists every metric at or below the weakness threshold, or a
// single placeholder when none qualify.
func (e *Engine) Weaknesses(m Metrics) []string {
	values := m.Map()
	weaknesses := make([]string, 0, len(metricOrder))
	for _, name := range metricOrder {
		if v := values[name]; v <= e.cfg.WeaknessThreshold {
			weaknesses = append(weaknesses, fmt.Sprintf("Weak %s (%.0f%%)", displayName(name), v*100))
		}
	}
	if len(weaknesses) == 0 {
		return []string{noWeaknessesMessage}
	}
	return weaknesses
}

// Recommendations emits one fixed suggestion per metric strictly below the
// recommendation threshold. The checks are independent of the
// strength/weakness thresholds; a metric can be flagged by both or neither.
func (e *Engine) Recommendations(m Metrics) []string {
	values := m.Map()
	recommendations := make([]string, 0, len(metricOrder))
	for _, name := range metricOrder {
		if values[name] < e.cfg.RecommendationThreshold {
			recommendations = append(recommendations, recommendationMessages[name])
		}
	}
	if len(recommendations) == 0 {
		return []string{balancedMessage}
	}
	return recommendations
}

// Appreciation maps the composite score onto one of four fixed messages.
func (e *Engine) Appreciation(score float64) string {
	for _, tier := range appreciationTiers {
		if score >= tier.minScore {
			return tier.message
		}
	}
	return appreciationTiers[len(appreciationTiers)-1].message
}

func displayName(metric string) string {
	if metric == "code_quality" {
		return "code quality"
	}
	return metric
}
