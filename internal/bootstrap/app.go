package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-scanner/internal/admission"
	"resume-scanner/internal/analysis"
	"resume-scanner/internal/assistant"
	"resume-scanner/internal/leads"
	"resume-scanner/internal/scan"
	"resume-scanner/internal/services/health"
	"resume-scanner/internal/shared/config"
	"resume-scanner/internal/shared/server"
	"resume-scanner/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Limiter      *admission.Limiter
	Leads        *leads.Recorder
	Assistant    *assistant.Client
	Orchestrator *analysis.Orchestrator
	ScanHandler  *scan.Handler
	Health       *health.Service
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Limiter: admission.New(cfg.RateLimitWindow, cfg.RateLimitMax, nil),
		Leads:   buildLeads(cfg, sqlDB),
	}

	app.Assistant = assistant.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIAssistantID, cfg.OpenAIBaseURL, cfg.OpenAIHTTPTimeout)
	if err := app.Assistant.CheckConfig(); err != nil {
		log.Printf("bootstrap: %v; analysis requests will fail until it is set", err)
	}
	app.Orchestrator = analysis.NewOrchestrator(app.Assistant, analysis.Config{
		Timeout:      cfg.AnalysisTimeout,
		PollInterval: cfg.PollInterval,
		Retry: analysis.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		MinExtractedChars: cfg.MinExtractedChars,
	})

	// A nil *Recorder must not become a non-nil interface.
	var recorder scan.LeadRecorder
	if app.Leads != nil {
		recorder = app.Leads
	}
	app.ScanHandler = scan.NewHandler(app.Orchestrator, recorder, cfg.MaxUploadBytes)

	// A nil *sql.DB must not become a non-nil Pinger.
	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Health = health.NewService(pinger, app.Assistant)

	app.Router = server.NewRouter(server.RouterDeps{
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		TrustedProxies:  cfg.TrustedProxies,
		Admitter:        app.Limiter,
		Scan:            app.ScanHandler,
		Health:          app.Health,
	})

	return app, nil
}

// Start launches background workers.
func (a *App) Start() {
	a.Limiter.Start(a.Config.RateLimitSweep)
}

// Close stops background workers, drains pending lead writes and closes the database.
func (a *App) Close() error {
	a.Limiter.Stop()
	a.Leads.Wait()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory lead store")
		}
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, DBOptions(cfg.DBPool, db.DefaultServerOptions()))
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory lead store: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory lead store: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

// DBOptions applies configured pool overrides to defaults.
func DBOptions(pool config.DBPool, defaults db.Options) db.Options {
	return defaults.Merge(db.Options{
		MaxOpenConns:    pool.MaxOpenConns,
		MaxIdleConns:    pool.MaxIdleConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
		PingTimeout:     pool.PingTimeout,
	})
}

func buildLeads(cfg config.Config, sqlDB *sql.DB) *leads.Recorder {
	switch {
	case sqlDB != nil:
		return leads.NewRecorder(&leads.PGStore{DB: sqlDB}, cfg.LeadsWriteTimeout)
	case config.IsDevLike(cfg.Env):
		return leads.NewRecorder(leads.NewMemoryStore(), cfg.LeadsWriteTimeout)
	default:
		return nil
	}
}
