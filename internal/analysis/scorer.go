package analysis

import "math"

// ComposeScore folds the five sub-metrics into a single [0,10] score using
// the fixed weight table, rounded to two decimal places.
func (e *Engine) ComposeScore(m Metrics) float64 {
	w := e.cfg.Weights

	total := m.Activity*w.Activity +
		m.Diversity*w.Diversity +
		m.Community*w.Community +
		m.Documentation*w.Documentation +
		m.CodeQuality*w.CodeQuality

	return round2(total * 10)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
