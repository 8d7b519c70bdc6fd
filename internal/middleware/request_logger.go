package middleware

import (
	"log/slog"
	"time"

	"github.com/dojoflow/tuition-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every completed request with its latency and outcome.
// Server errors log at error level, client errors at warn, the rest at
// info. Health probes are not logged; they fire every few seconds and say
// nothing.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if path == "/api/v1/health" {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, slog.String("query", query))
		}
		if userID, ok := c.Get("userID"); ok {
			attrs = append(attrs, slog.Any("user_id", userID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		switch {
		case status >= 500:
			logger.Error("Request", attrs...)
		case status >= 400:
			logger.Warn("Request", attrs...)
		default:
			logger.Info("Request", attrs...)
		}
	}
}
