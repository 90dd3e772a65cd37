package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Class groups upstream failures by how the caller should react.
type Class int

const (
	ClassUnknown Class = iota
	// ClassConfig covers bad credentials, unknown assistants and rejected requests.
	ClassConfig
	// ClassQuota means the account has no remaining quota.
	ClassQuota
	// ClassTransient covers network failures, throttling and 5xx responses.
	ClassTransient
	// ClassPayloadTooLarge is the 413 returned for oversized uploads.
	ClassPayloadTooLarge
)

func (c Class) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassQuota:
		return "quota"
	case ClassTransient:
		return "transient"
	case ClassPayloadTooLarge:
		return "payload_too_large"
	default:
		return "unknown"
	}
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Op         string
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: openai status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: openai status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Class classifies the response status.
func (e *StatusError) Class() Class {
	switch {
	case e.StatusCode == http.StatusRequestEntityTooLarge || e.Code == "file_too_large":
		return ClassPayloadTooLarge
	case e.StatusCode == http.StatusTooManyRequests:
		if e.Code == "insufficient_quota" || e.Type == "insufficient_quota" {
			return ClassQuota
		}
		return ClassTransient
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusConflict:
		return ClassTransient
	case e.StatusCode >= 500:
		return ClassTransient
	case e.StatusCode >= 400:
		return ClassConfig
	default:
		return ClassUnknown
	}
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: openai request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type apiErrorBody struct {
	Error *struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

func newStatusError(op string, status int, raw []byte) *StatusError {
	se := &StatusError{Op: op, StatusCode: status}
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		se.Message = body.Error.Message
		se.Type = body.Error.Type
		var code string
		if json.Unmarshal(body.Error.Code, &code) == nil {
			se.Code = code
		}
	}
	return se
}

// Classify returns the failure class of err. Caller-side cancellation is
// reported as ClassUnknown so it is never retried.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrMissingAssistantID) {
		return ClassConfig
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Class()
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		if errors.Is(ne.Err, context.Canceled) {
			return ClassUnknown
		}
		if isTransientNetwork(ne.Err) {
			return ClassTransient
		}
		// Unreachable scheme or malformed base URL.
		return ClassConfig
	}
	return ClassUnknown
}

func isTransientNetwork(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout")
}
