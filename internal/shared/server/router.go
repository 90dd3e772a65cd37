package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-scanner/internal/scan"
	"resume-scanner/internal/services/health"
	"resume-scanner/internal/shared/metrics"
	"resume-scanner/internal/shared/server/middleware"
	"resume-scanner/internal/shared/server/respond"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	CORSAllowOrigin []string
	// TrustedProxies may set X-Forwarded-For. Empty means the client is RemoteAddr.
	TrustedProxies []string
	Admitter       middleware.Admitter
	Scan           *scan.Handler
	Health         *health.Service
	Now            func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		log.Printf("router: ignoring TRUSTED_PROXIES: %v", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	r.GET("/metrics", metrics.Handler())

	if deps.Scan != nil {
		var before []gin.HandlerFunc
		if deps.Admitter != nil {
			before = append(before, middleware.Admission(deps.Admitter, deps.Now))
		}
		deps.Scan.RegisterRoutes(r, before...)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
