package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementGitHubCalls()
	m.IncrementAnalyses()
	m.IncrementAvatarFetches()

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["total_requests"])
	assert.EqualValues(t, 1, stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, 50.0, stats["cache_hit_rate_percent"])
	assert.EqualValues(t, 1, stats["github_api_calls"])
	assert.EqualValues(t, 1, stats["analyses_completed"])
	assert.EqualValues(t, 1, stats["avatar_fetches"])
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	p50 := m.GetPercentileResponseTime(50)
	p99 := m.GetPercentileResponseTime(99)

	assert.Greater(t, p99, p50)
	assert.InDelta(t, 50, p50.Milliseconds(), 2)
	assert.InDelta(t, 99, p99.Milliseconds(), 2)
}

func TestMetricsStatusDistribution(t *testing.T) {
	m := NewMetrics()

	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(502)

	dist := m.GetStatusCodeDistribution()
	assert.EqualValues(t, 2, dist[200])
	assert.EqualValues(t, 1, dist[502])
}

func TestMetricsRateLimitStats(t *testing.T) {
	m := NewMetrics()

	m.IncrementRateLimitIPBlock()
	m.IncrementRateLimitFallback()
	m.IncrementRateLimitEndpoint("/analyze")
	m.IncrementRateLimitEndpoint("/analyze")

	stats := m.GetRateLimitStats()
	assert.EqualValues(t, 1, stats["ip_blocks"])
	assert.EqualValues(t, 1, stats["fallback_count"])

	blocks, ok := stats["endpoint_blocks"].(map[string]int64)
	require.True(t, ok)
	assert.EqualValues(t, 2, blocks["/analyze"])
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.RecordResponseTime(time.Second)
	m.RecordRequestByStatus(200)
	m.Reset()

	stats := m.GetStats()
	assert.EqualValues(t, 0, stats["total_requests"])
	assert.Empty(t, m.GetStatusCodeDistribution())
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(50))
}
