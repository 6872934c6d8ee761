package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/analysis"
	"github.com/ZanzyTHEbar/profile-pulse/internal/resilience"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "Profile-Pulse/1.0"

	// GitHub paginates at 100 items max per page.
	reposPerPage = 100

	fetchTimeout  = 10 * time.Second
	avatarTimeout = 5 * time.Second
)

// GitHubAdapter fetches profile, repository and event collections from the
// GitHub REST API. It satisfies analysis.Source.
type GitHubAdapter struct {
	baseURL string
	token   string
	pool    *resilience.ConnectionPool
	avatar  *http.Client
}

// Option customizes a GitHubAdapter.
type Option func(*GitHubAdapter)

// WithBaseURL overrides the API base URL. Used by tests to point at a local
// server.
func WithBaseURL(baseURL string) Option {
	return func(g *GitHubAdapter) {
		g.baseURL = baseURL
	}
}

// NewGitHubAdapter creates a GitHub adapter with connection pooling and a
// circuit breaker guarding the API host.
func NewGitHubAdapter(token string, opts ...Option) *GitHubAdapter {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})

	pool := resilience.NewConnectionPool(10, 20, 30*time.Second, cb)

	g := &GitHubAdapter{
		baseURL: defaultBaseURL,
		token:   token,
		pool:    pool,
		avatar:  &http.Client{Timeout: avatarTimeout},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// WithToken returns a shallow copy of the adapter that authenticates with the
// given token. The copy shares the connection pool and circuit breaker.
func (g *GitHubAdapter) WithToken(token string) *GitHubAdapter {
	if token == "" {
		return g
	}
	clone := *g
	clone.token = token
	return &clone
}

// FetchProfile fetches the user record for a username.
func (g *GitHubAdapter) FetchProfile(ctx context.Context, username string) (analysis.Profile, error) {
	var profile analysis.Profile

	endpoint := fmt.Sprintf("%s/users/%s", g.baseURL, url.PathEscape(username))
	if err := g.getJSON(ctx, endpoint, &profile); err != nil {
		return analysis.Profile{}, err
	}

	return profile, nil
}

// FetchRepositories fetches the user's public repositories.
func (g *GitHubAdapter) FetchRepositories(ctx context.Context, username string) ([]analysis.Repository, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=%d", g.baseURL, url.PathEscape(username), reposPerPage)

	var repos []analysis.Repository
	if err := g.getJSON(ctx, endpoint, &repos); err != nil {
		return nil, err
	}

	return repos, nil
}

// FetchRecentEvents fetches the user's public events. GitHub does not filter
// server-side by time, so events older than since are dropped here.
func (g *GitHubAdapter) FetchRecentEvents(ctx context.Context, username string, since time.Time) ([]analysis.Event, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events?per_page=%d", g.baseURL, url.PathEscape(username), reposPerPage)

	var events []analysis.Event
	if err := g.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	recent := make([]analysis.Event, 0, len(events))
	for _, event := range events {
		ts, err := time.Parse(time.RFC3339, event.CreatedAt)
		if err != nil {
			// Keep events whose timestamps we cannot read; the scoring
			// engine reports them with context.
			recent = append(recent, event)
			continue
		}
		if ts.After(since) {
			recent = append(recent, event)
		}
	}

	return recent, nil
}

// FetchAvatar downloads an avatar image. The avatar host is a CDN separate
// from the API, so it gets its own short-timeout client outside the pool.
func (g *GitHubAdapter) FetchAvatar(ctx context.Context, avatarURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build avatar request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.avatar.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("avatar fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read avatar body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (g *GitHubAdapter) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": userAgent,
	}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	resp, err := g.pool.DoRequest(ctx, http.MethodGet, endpoint, headers)
	if err != nil {
		return fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("github API: resource not found (status 404)")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github response: %w", err)
	}

	return nil
}

// GetPoolStats returns connection pool statistics for the API host.
func (g *GitHubAdapter) GetPoolStats() map[string]interface{} {
	return g.pool.GetStats()
}

// Close closes the connection pool.
func (g *GitHubAdapter) Close() error {
	return g.pool.Close()
}
