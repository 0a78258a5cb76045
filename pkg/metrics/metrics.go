package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 附近拥堵判定结果
const (
	OutcomeCreated    = "created"
	OutcomeDuplicate  = "duplicate"
	OutcomeOutOfRange = "out_of_range"
	OutcomeNotFound   = "not_found"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 附近拥堵判定次数
	ProximityEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proximity_evaluations_total",
			Help: "Total number of nearby-jam proximity evaluations by outcome",
		},
		[]string{"outcome"},
	)

	// 通知创建计数
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncProximityEvaluation 记录一次附近拥堵判定
func IncProximityEvaluation(outcome string) {
	ProximityEvaluations.WithLabelValues(outcome).Inc()
}

// IncNotificationCreated 记录一次通知创建
func IncNotificationCreated(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}
