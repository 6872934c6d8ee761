package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/analysis"
)

// Entry is a stored profile analysis.
type Entry struct {
	ID           int64            `json:"id"`
	Username     string           `json:"username"`
	Score        float64          `json:"score"`
	Metrics      analysis.Metrics `json:"metrics"`
	Appreciation string           `json:"appreciation"`
	AvatarURL    string           `json:"avatar_url,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TopScore is an aggregated best-score row for a username.
type TopScore struct {
	Username     string    `json:"username"`
	BestScore    float64   `json:"best_score"`
	Analyses     int       `json:"analyses"`
	LastAnalyzed time.Time `json:"last_analyzed"`
}

// Store persists analysis results.
type Store struct {
	db *DB
}

// NewStore creates a store over the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SaveAnalysis records a completed analysis for a username.
func (s *Store) SaveAnalysis(ctx context.Context, username string, result *analysis.Result) (int64, error) {
	stmt, err := s.db.getPreparedStatement("insert_analysis")
	if err != nil {
		return 0, err
	}

	res, err := stmt.ExecContext(ctx,
		username,
		result.Score,
		result.Metrics.Activity,
		result.Metrics.Diversity,
		result.Metrics.Community,
		result.Metrics.Documentation,
		result.Metrics.CodeQuality,
		result.Appreciation,
		result.AvatarURL,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted analysis id: %w", err)
	}

	return id, nil
}

// History returns the most recent analyses for a username, newest first.
func (s *Store) History(ctx context.Context, username string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	stmt, err := s.db.getPreparedStatement("get_history")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.Username,
			&e.Score,
			&e.Metrics.Activity,
			&e.Metrics.Diversity,
			&e.Metrics.Community,
			&e.Metrics.Documentation,
			&e.Metrics.CodeQuality,
			&e.Appreciation,
			&e.AvatarURL,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history iteration failed: %w", err)
	}

	return entries, nil
}

// TopScores returns the best score seen per username, highest first.
func (s *Store) TopScores(ctx context.Context, limit int) ([]TopScore, error) {
	if limit <= 0 {
		limit = 10
	}

	stmt, err := s.db.getPreparedStatement("get_top_scores")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	scores := make([]TopScore, 0, limit)
	for rows.Next() {
		var ts TopScore
		if err := rows.Scan(&ts.Username, &ts.BestScore, &ts.Analyses, &ts.LastAnalyzed); err != nil {
			return nil, fmt.Errorf("failed to scan top score row: %w", err)
		}
		scores = append(scores, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top score iteration failed: %w", err)
	}

	return scores, nil
}
