package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds in-process application counters, exposed on /metrics.
type Metrics struct {
	RequestCount   int64
	ErrorCount     int64
	ScoreCacheHits int64
	RawCacheHits   int64
	CacheMisses    int64
	GitHubAPICalls int64
	StartTime      time.Time

	totalResponseTime int64 // nanoseconds

	RequestCountByStatus map[int]int64
	statusMutex          sync.RWMutex

	RateLimitBlocks      int64
	RateLimitRedisErrors int64
	RateLimitFallbacks   int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementScoreCacheHit records a request served from the score cache.
func (m *Metrics) IncrementScoreCacheHit() {
	atomic.AddInt64(&m.ScoreCacheHits, 1)
}

// IncrementRawCacheHit records a score recomputed from a cached snapshot.
func (m *Metrics) IncrementRawCacheHit() {
	atomic.AddInt64(&m.RawCacheHits, 1)
}

// IncrementCacheMiss records a request that needed an upstream fetch.
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementGitHubCalls increments the upstream fetch count.
func (m *Metrics) IncrementGitHubCalls() {
	atomic.AddInt64(&m.GitHubAPICalls, 1)
}

// RecordResponseTime accumulates a request duration.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	atomic.AddInt64(&m.totalResponseTime, int64(duration))
}

// RecordRequestByStatus tracks the response status code distribution.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMutex.Lock()
	defer m.statusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// IncrementRateLimitBlock records a request rejected by rate limiting.
func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

// IncrementRateLimitRedisError records a Redis rate limiter failure.
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback records an in-memory rate limit decision.
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
}

// GetStats returns a snapshot of all counters.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	totalNs := atomic.LoadInt64(&m.totalResponseTime)

	var avgMs float64
	if requests > 0 {
		avgMs = float64(totalNs) / float64(requests) / 1e6
	}

	m.statusMutex.RLock()
	byStatus := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		byStatus[code] = count
	}
	m.statusMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":          time.Since(m.StartTime).Seconds(),
		"request_count":           requests,
		"error_count":             atomic.LoadInt64(&m.ErrorCount),
		"score_cache_hits":        atomic.LoadInt64(&m.ScoreCacheHits),
		"raw_cache_hits":          atomic.LoadInt64(&m.RawCacheHits),
		"cache_misses":            atomic.LoadInt64(&m.CacheMisses),
		"github_api_calls":        atomic.LoadInt64(&m.GitHubAPICalls),
		"avg_response_time_ms":    avgMs,
		"requests_by_status":      byStatus,
		"rate_limit_blocks":       atomic.LoadInt64(&m.RateLimitBlocks),
		"rate_limit_redis_errors": atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":    atomic.LoadInt64(&m.RateLimitFallbacks),
	}
}
