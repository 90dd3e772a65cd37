package analysis

import "net/http"

// Outcome is what the caller sees for a failed analysis.
type Outcome struct {
	Status  int
	Code    string
	Message string
}

const genericFailureMessage = "Failed to analyze resume. Please try again later."

var outcomes = map[Kind]Outcome{
	KindValidation: {http.StatusBadRequest, "validation_error",
		"The uploaded file is not valid."},
	KindAdmissionDenied: {http.StatusTooManyRequests, "rate_limited",
		"Rate limit exceeded. Please try again later."},
	KindUpstreamConfig: {http.StatusServiceUnavailable, "service_misconfigured",
		"Service configuration issue. Please contact support."},
	KindUpstreamQuota: {http.StatusTooManyRequests, "upstream_busy",
		"Service is currently experiencing high demand. Please try again in a few minutes."},
	KindUpstreamTransient: {http.StatusServiceUnavailable, "upstream_unavailable",
		"Network connectivity issue. Please try again shortly."},
	KindUpstreamPayloadTooLarge: {http.StatusBadRequest, "file_too_large",
		"The file is too large to analyze. Please upload a smaller file."},
	KindUpstreamRunFailed: {http.StatusInternalServerError, "analysis_failed",
		genericFailureMessage},
	KindUpstreamCancelled: {http.StatusInternalServerError, "analysis_failed",
		genericFailureMessage},
	KindUpstreamExpired: {http.StatusInternalServerError, "analysis_failed",
		genericFailureMessage},
	KindLocalTimeout: {http.StatusServiceUnavailable, "analysis_timeout",
		"The analysis took too long to complete. Please try again."},
	KindParse: {http.StatusInternalServerError, "analysis_unreadable",
		"We could not read the analysis results. Please try again."},
	KindExtractionInsufficient: {http.StatusBadRequest, "insufficient_text",
		"Unable to extract sufficient text from resume. Please ensure the file contains readable text."},
	KindAborted: {http.StatusServiceUnavailable, "request_aborted",
		"The request was cancelled before the analysis finished."},
}

// Classify maps err onto a stable status, code and user-facing message.
// Internal error text is never included.
func Classify(err error) Outcome {
	kind, ok := KindOf(err)
	if !ok {
		return Outcome{Status: http.StatusInternalServerError, Code: "internal", Message: genericFailureMessage}
	}
	if out, ok := outcomes[kind]; ok {
		return out
	}
	return Outcome{Status: http.StatusInternalServerError, Code: "internal", Message: genericFailureMessage}
}
