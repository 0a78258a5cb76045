package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPaths 健康检查与指标抓取频率高，仅在失败时记录
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger 请求日志中间件，按状态码分级：5xx Error，4xx Warn，其余 Info
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		path := c.Request.URL.Path
		if status < http.StatusBadRequest && quietPaths[path] {
			return
		}

		level, msg := levelFor(status)
		ce := logger.Check(level, msg)
		if ce == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields = append(fields, zap.Any("user_id", userID), zap.String("role", c.GetString("role")))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		ce.Write(fields...)
	}
}

func levelFor(status int) (zapcore.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel, "请求处理失败"
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel, "客户端错误"
	default:
		return zapcore.InfoLevel, "请求完成"
	}
}
