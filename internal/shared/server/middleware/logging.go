package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-scanner/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		telemetry.Info("request.complete", map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            c.Writer.Status(),
			"duration_ms":       float64(time.Since(start).Microseconds()) / 1000.0,
			"job_id":            c.GetString("jobId"),
			"status_transition": c.GetString("statusTransition"),
			"error_code":        c.GetString("errorCode"),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
