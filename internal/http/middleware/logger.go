package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/common/logger"
)

// Logger logs one line per request. Tenant ids taken from the path are
// attached to the request context so handler logs carry them too.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if tenantID, ok := tenantParam(c); ok {
			ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
				TenantID:  &tenantID,
				Component: "intake.http",
			})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		status := c.Writer.Status()
		ctx := c.Request.Context()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request error", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
