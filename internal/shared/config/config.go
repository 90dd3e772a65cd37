package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	TrustedProxies  []string
	DatabaseURL     string

	OpenAIAPIKey      string
	OpenAIAssistantID string
	OpenAIBaseURL     string
	OpenAIHTTPTimeout time.Duration

	MaxUploadBytes    int64
	MinExtractedChars int
	AnalysisTimeout   time.Duration
	PollInterval      time.Duration
	RetryMaxAttempts  int
	RetryBaseDelay    time.Duration

	RateLimitWindow   time.Duration
	RateLimitMax      int
	RateLimitSweep    time.Duration
	LeadsWriteTimeout time.Duration

	DBPool DBPool
}

// DBPool holds optional DB_* pool overrides. Zero fields keep the caller's defaults.
type DBPool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over file values; file values win over defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadConfigFile(path); err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is not set; lead emails will not be stored")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		TrustedProxies:  splitAndTrim(os.Getenv("TRUSTED_PROXIES")),
		DatabaseURL:     dbURL,

		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIAssistantID: strings.TrimSpace(os.Getenv("OPENAI_ASSISTANT_ID")),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIHTTPTimeout: getSeconds("OPENAI_HTTP_TIMEOUT_SECONDS", 60*time.Second),

		MaxUploadBytes:    getInt64("MAX_UPLOAD_BYTES", 5<<20),
		MinExtractedChars: getInt("MIN_EXTRACTED_CHARS", 50),
		AnalysisTimeout:   getSeconds("ANALYSIS_TIMEOUT_SECONDS", 120*time.Second),
		PollInterval:      getMillis("ANALYSIS_POLL_INTERVAL_MS", time.Second),
		RetryMaxAttempts:  getInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:    getMillis("RETRY_BASE_DELAY_MS", time.Second),

		RateLimitWindow:   getSeconds("RATE_LIMIT_WINDOW_SECONDS", 60*time.Second),
		RateLimitMax:      getInt("RATE_LIMIT_MAX_REQUESTS", 5),
		RateLimitSweep:    getSeconds("RATE_LIMIT_SWEEP_SECONDS", 5*time.Minute),
		LeadsWriteTimeout: getSeconds("LEADS_WRITE_TIMEOUT_SECONDS", 10*time.Second),

		DBPool: DBPool{
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 0),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 0),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 0),
			ConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", 0),
			PingTimeout:     getDuration("DB_PING_TIMEOUT", 0),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s=%q is not a positive integer, using %d", key, raw, def)
		return def
	}
	return val
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config: %s=%q is not a positive integer, using %d", key, raw, def)
		return def
	}
	return val
}

func getSeconds(key string, def time.Duration) time.Duration {
	secs := getInt(key, int(def/time.Second))
	return time.Duration(secs) * time.Second
}

func getMillis(key string, def time.Duration) time.Duration {
	ms := getInt(key, int(def/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// getDuration parses Go duration strings such as "30m".
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s=%q is not a positive duration, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
