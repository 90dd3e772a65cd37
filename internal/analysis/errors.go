package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the externally meaningful class of an analysis failure.
type Kind string

const (
	KindValidation              Kind = "validation_error"
	KindAdmissionDenied         Kind = "admission_denied"
	KindUpstreamConfig          Kind = "upstream_config_error"
	KindUpstreamQuota           Kind = "upstream_quota"
	KindUpstreamTransient       Kind = "upstream_transient"
	KindUpstreamPayloadTooLarge Kind = "upstream_payload_too_large"
	KindUpstreamRunFailed       Kind = "upstream_run_failed"
	KindUpstreamCancelled       Kind = "upstream_cancelled"
	KindUpstreamExpired         Kind = "upstream_expired"
	KindLocalTimeout            Kind = "local_timeout"
	KindParse                   Kind = "parse_error"
	KindExtractionInsufficient  Kind = "extraction_insufficient"
	KindAborted                 Kind = "aborted"
)

var (
	ErrValidation              = errors.New("invalid upload")
	ErrAdmissionDenied         = errors.New("admission denied")
	ErrUpstreamConfig          = errors.New("analysis service misconfigured")
	ErrUpstreamQuota           = errors.New("analysis service quota exhausted")
	ErrUpstreamTransient       = errors.New("analysis service unavailable")
	ErrUpstreamPayloadTooLarge = errors.New("upload rejected as too large")
	ErrUpstreamRunFailed       = errors.New("analysis run failed")
	ErrUpstreamCancelled       = errors.New("analysis run cancelled")
	ErrUpstreamExpired         = errors.New("analysis run expired")
	ErrLocalTimeout            = errors.New("analysis timed out")
	ErrParse                   = errors.New("analysis response unreadable")
	ErrExtractionInsufficient  = errors.New("not enough text extracted")
	ErrAborted                 = errors.New("analysis aborted by caller")
)

var sentinels = map[Kind]error{
	KindValidation:              ErrValidation,
	KindAdmissionDenied:         ErrAdmissionDenied,
	KindUpstreamConfig:          ErrUpstreamConfig,
	KindUpstreamQuota:           ErrUpstreamQuota,
	KindUpstreamTransient:       ErrUpstreamTransient,
	KindUpstreamPayloadTooLarge: ErrUpstreamPayloadTooLarge,
	KindUpstreamRunFailed:       ErrUpstreamRunFailed,
	KindUpstreamCancelled:       ErrUpstreamCancelled,
	KindUpstreamExpired:         ErrUpstreamExpired,
	KindLocalTimeout:            ErrLocalTimeout,
	KindParse:                   ErrParse,
	KindExtractionInsufficient:  ErrExtractionInsufficient,
	KindAborted:                 ErrAborted,
}

// Error carries a Kind alongside the failing operation and its cause.
// errors.Is matches both the cause and the sentinel of the kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewValidationError wraps the validator's messages in a ValidationError.
func NewValidationError(messages []string) error {
	return newError(KindValidation, "validate upload", fmt.Errorf("%s", strings.Join(messages, ", ")))
}

// KindOf returns the kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
