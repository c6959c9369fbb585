package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// StoreLatency records Memory Store / Cue Index / Ranker operation latency.
	StoreLatency *prometheus.HistogramVec

	// CacheHitsTotal / CacheMissesTotal track the query cache (ristretto).
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// JobsEnqueuedTotal / JobsDroppedTotal / JobsFailedTotal track the job queue.
	JobsEnqueuedTotal *prometheus.CounterVec
	JobsDroppedTotal  *prometheus.CounterVec
	JobsFailedTotal   *prometheus.CounterVec
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Safe to call multiple times; only the first call registers.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	StoreLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_store_latency_seconds",
			Help:    "Memory store / cue index operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheHitsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "cuemap_cache_hits_total",
		Help: "Total query cache hits",
	})

	CacheMissesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "cuemap_cache_misses_total",
		Help: "Total query cache misses",
	})

	JobsEnqueuedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "cuemap_jobs_enqueued_total",
		Help: "Total background jobs enqueued, by kind",
	}, []string{"kind"})

	JobsDroppedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "cuemap_jobs_dropped_total",
		Help: "Total background jobs dropped because the queue was full or closed, by kind",
	}, []string{"kind"})

	JobsFailedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "cuemap_jobs_failed_total",
		Help: "Total background jobs that returned an error, by kind",
	}, []string{"kind"})
}

// IncJobsEnqueued records one job of kind accepted onto the queue.
func IncJobsEnqueued(kind string) {
	if JobsEnqueuedTotal == nil {
		return
	}
	JobsEnqueuedTotal.WithLabelValues(kind).Inc()
}

// IncJobsDropped records one job of kind dropped because the queue was full
// or already closed.
func IncJobsDropped(kind string) {
	if JobsDroppedTotal == nil {
		return
	}
	JobsDroppedTotal.WithLabelValues(kind).Inc()
}

// IncJobsFailed records one job of kind that returned an error.
func IncJobsFailed(kind string) {
	if JobsFailedTotal == nil {
		return
	}
	JobsFailedTotal.WithLabelValues(kind).Inc()
}

// ObserveStoreLatency records a Memory Store / Cue Index / Ranker operation's
// latency in seconds.
func ObserveStoreLatency(operation string, seconds float64) {
	if StoreLatency == nil {
		return
	}
	StoreLatency.WithLabelValues(operation).Observe(seconds)
}

// IncCacheHit / IncCacheMiss record one query-cache lookup outcome.
func IncCacheHit() {
	if CacheHitsTotal != nil {
		CacheHitsTotal.Inc()
	}
}

func IncCacheMiss() {
	if CacheMissesTotal != nil {
		CacheMissesTotal.Inc()
	}
}

// MetricsMiddleware records HTTP request metrics for Prometheus.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(duration.Seconds())
	}
}
