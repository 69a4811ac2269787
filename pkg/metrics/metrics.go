package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务操作结果标签
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// RequestTotal HTTP 请求计数（path 为路由模板，避免 ID 导致标签爆炸）
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration HTTP 请求耗时
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homework_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// AssignmentOperations 作业操作计数（list / create / update / delete / export / seed）
	AssignmentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_assignment_operations_total",
			Help: "Total number of assignment operations",
		},
		[]string{"operation", "status"},
	)
)

// ObserveOperation 按 err 是否为空记录一次业务操作
func ObserveOperation(operation string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	AssignmentOperations.WithLabelValues(operation, status).Inc()
}
