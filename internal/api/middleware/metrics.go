package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jam-radar/backend/pkg/metrics"
)

// Metrics 记录每个请求的耗时直方图
// path 取路由模板（如 /api/v1/jam-posts/:id），未匹配路由统一记为 unmatched
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
