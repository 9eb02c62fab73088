package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starnavi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starnavi_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Moderation metrics
var (
	PostsBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnavi_posts_blocked_total",
		Help: "Total number of posts blocked by the moderation gate",
	})

	CommentsBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnavi_comments_blocked_total",
		Help: "Total number of comments blocked by the moderation gate",
	})
)

// Auto-reply metrics
var (
	AutoRepliesScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnavi_auto_replies_scheduled_total",
		Help: "Total number of auto-replies scheduled",
	})

	AutoRepliesFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnavi_auto_replies_fired_total",
		Help: "Total number of auto-replies created",
	})

	AutoReplyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnavi_auto_reply_failures_total",
		Help: "Total number of auto-reply deliveries that failed",
	})

	AutoRepliesPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starnavi_auto_replies_pending",
		Help: "Number of auto-replies currently waiting on their delay",
	})
)

// Record store metrics (gauges updated periodically by the collector)
var (
	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starnavi_users_total",
		Help: "Total number of registered users",
	})

	PostsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starnavi_posts_total",
		Help: "Total number of posts",
	})

	CommentsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starnavi_comments_total",
		Help: "Total number of comments",
	})
)

// NormalizePath collapses ID path segments so metric cardinality stays
// bounded regardless of how many posts exist.
func NormalizePath(path string) string {
	if path == "/" {
		return path
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if isNumeric(part) {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
