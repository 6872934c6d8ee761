package types

import (
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/analysis"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Username string `json:"username" binding:"required"`
	// Token is an optional GitHub API token used for this request only. It
	// raises the upstream rate limit; it is never stored.
	Token string `json:"token,omitempty"`
}

// AnalyzeResponse is the body of a successful POST /analyze.
type AnalyzeResponse struct {
	Username        string             `json:"username"`
	Score           float64            `json:"score"`
	Metrics         map[string]float64 `json:"metrics"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	Recommendations []string           `json:"recommendations"`
	Appreciation    string             `json:"appreciation"`
	AvatarURL       string             `json:"avatar_url,omitempty"`
	AnalyzedAt      time.Time          `json:"analyzed_at"`
}

// NewAnalyzeResponse builds the wire response from an analysis result.
func NewAnalyzeResponse(username string, result *analysis.Result) AnalyzeResponse {
	return AnalyzeResponse{
		Username:        username,
		Score:           result.Score,
		Metrics:         result.Metrics.Map(),
		Strengths:       result.Strengths,
		Weaknesses:      result.Weaknesses,
		Recommendations: result.Recommendations,
		Appreciation:    result.Appreciation,
		AvatarURL:       result.AvatarURL,
		AnalyzedAt:      time.Now().UTC(),
	}
}
