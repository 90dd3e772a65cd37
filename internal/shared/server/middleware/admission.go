package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resume-scanner/internal/admission"
	"resume-scanner/internal/shared/metrics"
	"resume-scanner/internal/shared/server/respond"
)

const (
	remainingHeader = "X-RateLimit-Remaining"
	resetHeader     = "X-RateLimit-Reset"
)

// Admitter decides whether a client may issue another request.
type Admitter interface {
	Admit(clientID string) admission.Decision
}

// Admission rejects clients that exceeded their window with 429 and the
// X-RateLimit-* headers. Admitted requests carry X-RateLimit-Remaining.
func Admission(limiter Admitter, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		d := limiter.Admit(c.ClientIP())
		c.Header(remainingHeader, strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}

		metrics.IncAdmissionDenied()
		c.Header(resetHeader, d.ResetAt.UTC().Format(time.RFC3339))
		wait := d.ResetAt.Sub(now()).Seconds()
		c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait)))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
	}
}
