package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConfigChecker reports whether the assistant credentials are present.
type ConfigChecker interface {
	CheckConfig() error
}

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB        Pinger
	Assistant ConfigChecker
}

// NewService constructs a new health service. Either dependency may be nil.
func NewService(db Pinger, assistant ConfigChecker) *Service {
	return &Service{DB: db, Assistant: assistant}
}

// Report is the /health payload. OK means the process is serving; Checks
// describe dependencies that degrade individual features.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Status runs the dependency checks.
func (s *Service) Status(ctx context.Context) Report {
	checks := map[string]string{
		"database":  "disabled",
		"assistant": "unknown",
	}
	if s == nil {
		return Report{OK: true, Checks: checks}
	}
	if s.DB != nil {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.DB.PingContext(pctx); err != nil {
			checks["database"] = "unavailable"
		} else {
			checks["database"] = "ok"
		}
	}
	if s.Assistant != nil {
		if err := s.Assistant.CheckConfig(); err != nil {
			checks["assistant"] = "misconfigured"
		} else {
			checks["assistant"] = "configured"
		}
	}
	return Report{OK: true, Checks: checks}
}
