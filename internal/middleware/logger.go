package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger returns a gin middleware that writes one access record per request:
// method, route, path, status, latency, response size and client IP.
//
// The level follows the status code (5xx Error, 4xx Warn, else Info). Records
// go through the *Context slog methods, so request_id and user_id stored with
// logger.WithContextAttrs are attached by the logger's context middleware.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		// c.Request carries the attrs added by later middleware (e.g. user_id).
		logger.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}
