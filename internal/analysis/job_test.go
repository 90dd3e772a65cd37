package analysis

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTerminalStatusIsAbsorbing(t *testing.T) {
	job := newJob("job-1", time.Now())
	assert.Equal(t, StatusCreated, job.Status)

	prev, ok := job.transition(StatusUploading)
	assert.True(t, ok)
	assert.Equal(t, StatusCreated, prev)

	_, ok = job.transition(StatusUploading)
	assert.False(t, ok, "same status is not a transition")

	_, ok = job.transition(StatusTimedOut)
	assert.True(t, ok)
	for _, next := range []Status{StatusPolling, StatusCompleted, StatusFailed, StatusCancelled} {
		_, ok = job.transition(next)
		assert.False(t, ok)
		assert.Equal(t, StatusTimedOut, job.Status)
	}
}

func TestTerminalStatusFor(t *testing.T) {
	assert.Equal(t, StatusTimedOut, terminalStatusFor(KindLocalTimeout))
	assert.Equal(t, StatusCancelled, terminalStatusFor(KindUpstreamCancelled))
	assert.Equal(t, StatusCancelled, terminalStatusFor(KindAborted))
	assert.Equal(t, StatusFailed, terminalStatusFor(KindParse))
	assert.Equal(t, StatusFailed, terminalStatusFor(KindUpstreamExpired))
}

func TestTimedOut(t *testing.T) {
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	budget := 120 * time.Second

	assert.False(t, TimedOut(start, start, budget))
	assert.False(t, TimedOut(start, start.Add(119999*time.Millisecond), budget))
	assert.True(t, TimedOut(start, start.Add(budget), budget))
	assert.True(t, TimedOut(start, start.Add(5*time.Minute), budget))

	assert.Equal(t, time.Duration(0), remainingBudget(start, start.Add(3*time.Minute), budget))
	assert.Equal(t, 20*time.Second, remainingBudget(start, start.Add(100*time.Second), budget))
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 2*time.Second, p.Delay(0))

	prev := p.Delay(1)
	for attempt := 2; attempt <= 200; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.Positive(t, d, "attempt %d", attempt)
		prev = d
	}
	assert.Equal(t, maxDelay, p.Delay(63))
	assert.Equal(t, maxDelay, RetryPolicy{BaseDelay: time.Hour}.Delay(40))
}

func TestSystemClockSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, SystemClock{}.Sleep(context.Background(), 0))
}

func TestErrorMatchesKindSentinelAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := newError(KindUpstreamExpired, "poll run", cause)

	assert.ErrorIs(t, err, ErrUpstreamExpired)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUpstreamRunFailed)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindUpstreamExpired, kind)
	assert.Equal(t, "poll run: upstream_expired: boom", err.Error())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
		code   string
	}{
		{KindValidation, http.StatusBadRequest, "validation_error"},
		{KindAdmissionDenied, http.StatusTooManyRequests, "rate_limited"},
		{KindUpstreamConfig, http.StatusServiceUnavailable, "service_misconfigured"},
		{KindUpstreamQuota, http.StatusTooManyRequests, "upstream_busy"},
		{KindUpstreamTransient, http.StatusServiceUnavailable, "upstream_unavailable"},
		{KindUpstreamPayloadTooLarge, http.StatusBadRequest, "file_too_large"},
		{KindUpstreamRunFailed, http.StatusInternalServerError, "analysis_failed"},
		{KindUpstreamCancelled, http.StatusInternalServerError, "analysis_failed"},
		{KindUpstreamExpired, http.StatusInternalServerError, "analysis_failed"},
		{KindLocalTimeout, http.StatusServiceUnavailable, "analysis_timeout"},
		{KindParse, http.StatusInternalServerError, "analysis_unreadable"},
		{KindExtractionInsufficient, http.StatusBadRequest, "insufficient_text"},
		{KindAborted, http.StatusServiceUnavailable, "request_aborted"},
	}
	allowed := map[int]bool{
		http.StatusBadRequest:          true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	}
	require.Len(t, cases, len(outcomes), "every kind has an outcome")
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			out := Classify(newError(tc.kind, "op", errors.New("sk-secret upstream detail")))
			assert.Equal(t, tc.status, out.Status)
			assert.Equal(t, tc.code, out.Code)
			assert.NotEmpty(t, out.Message)
			assert.NotContains(t, out.Message, "sk-secret")
			assert.True(t, allowed[out.Status], "status %d is not a documented response", out.Status)
		})
	}
}

func TestClassifyUnknownErrorIsInternal(t *testing.T) {
	out := Classify(errors.New("something odd"))
	assert.Equal(t, http.StatusInternalServerError, out.Status)
	assert.Equal(t, "internal", out.Code)
	assert.Equal(t, genericFailureMessage, out.Message)

	out = Classify(newError(Kind("made_up"), "op", nil))
	assert.Equal(t, http.StatusInternalServerError, out.Status)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError([]string{"Invalid file format", "File is empty"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Invalid file format, File is empty")
}
