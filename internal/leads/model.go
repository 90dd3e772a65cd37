package leads

import "time"

// Lead is an email captured alongside an upload.
type Lead struct {
	Email               string     `json:"email"`
	ResumeFilename      string     `json:"resumeFilename"`
	AnalysisCompleted   bool       `json:"analysisCompleted"`
	AnalysisCompletedAt *time.Time `json:"analysisCompletedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
