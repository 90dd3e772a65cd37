package analysis

import (
	"strings"
	"time"
)

// SchemaVersion is the result format produced by this service.
const SchemaVersion = "3.0.0"

const (
	LabelHigh   = "High Performance"
	LabelMedium = "Medium Performance"
	LabelLow    = "Low Performance"
)

// Result is the structured assessment returned to callers.
type Result struct {
	SchemaVersion   string           `json:"schema_version"`
	GeneratedAt     string           `json:"generated_at"`
	Overall         Overall          `json:"overall"`
	Breakdown       Breakdown        `json:"breakdown"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Overall struct {
	Score   float64 `json:"score_0_to_100"`
	Label   string  `json:"label"`
	Summary string  `json:"summary"`
}

// Breakdown holds 0-10 sub-scores. A nil score was not assessed.
type Breakdown struct {
	KeywordCoverage *float64 `json:"keyword_coverage"`
	ATSCompliance   *float64 `json:"ats_compliance"`
	JobMatch        *float64 `json:"job_match"`
	Structure       *float64 `json:"structure"`
	Ranking         *float64 `json:"ranking"`
	Readability     *float64 `json:"readability"`
	GhostedRisk     *float64 `json:"ghosted_risk_subscore_0_to_10"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// LabelFor maps an overall score to its performance label.
func LabelFor(score float64) string {
	switch {
	case score >= 70:
		return LabelHigh
	case score >= 40:
		return LabelMedium
	default:
		return LabelLow
	}
}

// normalize fills server-owned fields. The label always follows the score
// regardless of what the assistant wrote.
func (r *Result) normalize(now time.Time) {
	r.SchemaVersion = SchemaVersion
	if strings.TrimSpace(r.GeneratedAt) == "" {
		r.GeneratedAt = now.UTC().Format(time.RFC3339)
	}
	r.Overall.Label = LabelFor(r.Overall.Score)
	r.Overall.Summary = strings.TrimSpace(r.Overall.Summary)
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
}
