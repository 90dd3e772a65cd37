package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the env keys that may also be set from a YAML file.
type fileConfig struct {
	Port            string   `yaml:"port"`
	Env             string   `yaml:"env"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
	DatabaseURL     string   `yaml:"database_url"`

	OpenAI struct {
		AssistantID        string `yaml:"assistant_id"`
		BaseURL            string `yaml:"base_url"`
		HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	} `yaml:"openai"`

	Analysis struct {
		MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
		MinExtractedChars int   `yaml:"min_extracted_chars"`
		TimeoutSeconds    int   `yaml:"timeout_seconds"`
		PollIntervalMs    int   `yaml:"poll_interval_ms"`
		RetryMaxAttempts  int   `yaml:"retry_max_attempts"`
		RetryBaseDelayMs  int   `yaml:"retry_base_delay_ms"`
	} `yaml:"analysis"`

	RateLimit struct {
		WindowSeconds int `yaml:"window_seconds"`
		MaxRequests   int `yaml:"max_requests"`
		SweepSeconds  int `yaml:"sweep_seconds"`
	} `yaml:"rate_limit"`
}

// loadConfigFile exports YAML values as env vars that are not already set.
// Secrets such as OPENAI_API_KEY are env-only.
func loadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	for key, val := range fc.envPairs() {
		if val == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, val)
	}
	return nil
}

func (fc fileConfig) envPairs() map[string]string {
	return map[string]string{
		"PORT":                        fc.Port,
		"ENV":                         fc.Env,
		"CORS_ALLOW_ORIGINS":          strings.Join(fc.CORSAllowOrigin, ","),
		"TRUSTED_PROXIES":             strings.Join(fc.TrustedProxies, ","),
		"DATABASE_URL":                fc.DatabaseURL,
		"OPENAI_ASSISTANT_ID":         fc.OpenAI.AssistantID,
		"OPENAI_BASE_URL":             fc.OpenAI.BaseURL,
		"OPENAI_HTTP_TIMEOUT_SECONDS": itoa(fc.OpenAI.HTTPTimeoutSeconds),
		"MAX_UPLOAD_BYTES":            itoa64(fc.Analysis.MaxUploadBytes),
		"MIN_EXTRACTED_CHARS":         itoa(fc.Analysis.MinExtractedChars),
		"ANALYSIS_TIMEOUT_SECONDS":    itoa(fc.Analysis.TimeoutSeconds),
		"ANALYSIS_POLL_INTERVAL_MS":   itoa(fc.Analysis.PollIntervalMs),
		"RETRY_MAX_ATTEMPTS":          itoa(fc.Analysis.RetryMaxAttempts),
		"RETRY_BASE_DELAY_MS":         itoa(fc.Analysis.RetryBaseDelayMs),
		"RATE_LIMIT_WINDOW_SECONDS":   itoa(fc.RateLimit.WindowSeconds),
		"RATE_LIMIT_MAX_REQUESTS":     itoa(fc.RateLimit.MaxRequests),
		"RATE_LIMIT_SWEEP_SECONDS":    itoa(fc.RateLimit.SweepSeconds),
	}
}

func itoa(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func itoa64(v int64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
