package respond

import (
	"github.com/gin-gonic/gin"

	"resume-scanner/internal/shared/telemetry"
)

// Envelope is the response body shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error logs the failure and aborts with an unsuccessful envelope.
// message is shown to the caller; code is a stable machine-readable identifier.
func Error(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if jobID := c.GetString("jobId"); jobID != "" {
		fields["job_id"] = jobID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.Set("errorCode", code)
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   message,
		Code:    code,
	})
}
