package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"homework-tracker/pkg/metrics"
)

// Metrics Prometheus 请求指标中间件
// path 使用路由模板（/api/assignments/:id），未匹配的请求归为 unmatched
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RequestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
