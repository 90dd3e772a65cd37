package analysis

import "strings"

const resultFormatInstructions = `Return exactly one JSON object and nothing else, with this structure:
{
  "schema_version": "3.0.0",
  "generated_at": "<RFC3339 timestamp>",
  "overall": {"score_0_to_100": <number 0-100>, "label": "<string>", "summary": "<two or three sentences>"},
  "breakdown": {
    "keyword_coverage": <number 0-10 or null>,
    "ats_compliance": <number 0-10 or null>,
    "job_match": <number 0-10 or null>,
    "structure": <number 0-10 or null>,
    "ranking": <number 0-10 or null>,
    "readability": <number 0-10 or null>,
    "ghosted_risk_subscore_0_to_10": <number 0-10 or null>
  },
  "recommendations": [{"title": "<string>", "description": "<string>", "priority": "high|medium|low"}]
}`

func attachmentPrompt() string {
	return "Please analyze the attached resume and provide a detailed assessment.\n\n" + resultFormatInstructions
}

func inlinePrompt(resumeText string) string {
	var b strings.Builder
	b.WriteString("Please analyze this resume and provide a detailed assessment.\n\n")
	b.WriteString(resultFormatInstructions)
	b.WriteString("\n\nResume content:\n")
	b.WriteString(resumeText)
	return b.String()
}
