package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-scanner/internal/assistant"
	"resume-scanner/internal/uploads"
)

func newTestOrchestrator(client *fakeClient, clock *fakeClock, extracted string) (*Orchestrator, *int) {
	extractCalls := 0
	o := NewOrchestrator(client, DefaultConfig(),
		WithClock(clock),
		WithIDGenerator(func() string { return "job-1" }),
		WithExtractor(func(data []byte, mimeType, fileName string) string {
			extractCalls++
			return extracted
		}),
	)
	return o, &extractCalls
}

func testDoc() uploads.Document {
	return uploads.NewDocument([]byte("%PDF-1.7 resume bytes"), "resume.pdf", "application/pdf")
}

func TestAnalyzeAttachmentSuccess(t *testing.T) {
	client := newFakeClient()
	clock := newFakeClock()
	o, extractCalls := newTestOrchestrator(client, clock, "")

	report, err := o.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	require.NotNil(t, report.Result)

	assert.Equal(t, StatusCompleted, report.Job.Status)
	assert.Equal(t, PathAttachment, report.Job.Path)
	assert.Equal(t, "file-1", report.Job.RemoteFileID)
	assert.Equal(t, 1, report.Job.Attempt)
	assert.Equal(t, 0, *extractCalls)

	res := report.Result
	assert.Equal(t, SchemaVersion, res.SchemaVersion)
	assert.Equal(t, float64(72), res.Overall.Score)
	assert.Equal(t, LabelHigh, res.Overall.Label, "label derived from score")
	assert.Nil(t, res.Breakdown.JobMatch)
	require.NotNil(t, res.Breakdown.ATSCompliance)
	assert.Equal(t, 7.5, *res.Breakdown.ATSCompliance)
	require.Len(t, res.Recommendations, 1)
	assert.Contains(t, res.Recommendations[0].Description, "{numbers}")

	require.Len(t, client.created, 1)
	assert.Equal(t, "file-1", client.created[0].FileID)
	assert.Equal(t, map[string]int{"file-1": 1}, client.deletedFiles)
	assert.Equal(t, map[string]int{"thread-1": 1}, client.deletedThreads)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
}

func TestAnalyzePayloadTooLargeFallsBackToInlineText(t *testing.T) {
	client := newFakeClient()
	client.uploadErr = statusErr(http.StatusRequestEntityTooLarge)
	text := textOfLength(12000)
	o, extractCalls := newTestOrchestrator(client, newFakeClock(), text)

	report, err := o.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	require.NotNil(t, report.Result)

	assert.Equal(t, 1, *extractCalls)
	assert.Equal(t, 1, client.uploads, "upload is not retried")
	assert.Equal(t, PathInlineText, report.Job.Path)
	assert.Empty(t, report.Job.RemoteFileID)
	require.Len(t, client.created, 1)
	assert.Empty(t, client.created[0].FileID)
	assert.True(t, strings.HasSuffix(client.created[0].Content, text))
	assert.Empty(t, client.deletedFiles, "no remote file was ever created")
	assert.Equal(t, 1, client.deletedThreads["thread-1"])
}

func TestAnalyzeInsufficientExtractedText(t *testing.T) {
	client := newFakeClient()
	client.uploadErr = statusErr(http.StatusRequestEntityTooLarge)
	o, _ := newTestOrchestrator(client, newFakeClock(), textOfLength(30))

	report, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrExtractionInsufficient)
	assert.Nil(t, report.Result)
	assert.Equal(t, StatusFailed, report.Job.Status)
	assert.Zero(t, client.createCalls, "no remote call after extraction")
	assert.Empty(t, client.deletedFiles)
	assert.Empty(t, client.deletedThreads)
	assert.Equal(t, http.StatusBadRequest, Classify(err).Status)
}

func TestAnalyzeUploadFailureIsFatal(t *testing.T) {
	client := newFakeClient()
	client.uploadErr = statusErr(http.StatusUnauthorized)
	o, extractCalls := newTestOrchestrator(client, newFakeClock(), textOfLength(500))

	_, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamConfig)
	assert.Zero(t, *extractCalls)
	assert.Zero(t, client.createCalls)
	assert.Equal(t, http.StatusServiceUnavailable, Classify(err).Status)
}

func TestAnalyzeMissingConfig(t *testing.T) {
	client := newFakeClient()
	client.configErr = errors.New("OPENAI_API_KEY is not configured")
	o, _ := newTestOrchestrator(client, newFakeClock(), "")

	report, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamConfig)
	assert.Zero(t, client.uploads)
	assert.Equal(t, StatusFailed, report.Job.Status)
	out := Classify(err)
	assert.Equal(t, "service_misconfigured", out.Code)
	assert.NotContains(t, out.Message, "OPENAI_API_KEY")
}

func TestAnalyzeTimesOutAtBudgetNotBefore(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{assistant.RunInProgress}
	clock := newFakeClock()
	o, _ := newTestOrchestrator(client, clock, "")
	start := clock.Now()

	report, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrLocalTimeout)

	assert.Equal(t, 120*time.Second, clock.Now().Sub(start))
	assert.Equal(t, 119, client.retrieveCalls, "polled every second until the budget ran out")
	assert.Equal(t, StatusTimedOut, report.Job.Status)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
	assert.Equal(t, 1, client.deletedThreads["thread-1"])

	out := Classify(err)
	assert.Equal(t, http.StatusServiceUnavailable, out.Status)
	assert.Equal(t, "analysis_timeout", out.Code)
}

func TestAnalyzeSleepIsClippedToRemainingBudget(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{assistant.RunInProgress}
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.Timeout = 2500 * time.Millisecond
	o := NewOrchestrator(client, cfg, WithClock(clock), WithExtractor(func([]byte, string, string) string { return "" }))
	start := clock.Now()

	_, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrLocalTimeout)
	assert.Equal(t, []time.Duration{time.Second, time.Second, 500 * time.Millisecond}, clock.sleeps)
	assert.Equal(t, 2500*time.Millisecond, clock.Now().Sub(start))
}

func TestAnalyzeRetryExhaustionCleansUp(t *testing.T) {
	client := newFakeClient()
	client.createErrs = []error{statusErr(http.StatusBadGateway), statusErr(http.StatusServiceUnavailable), statusErr(http.StatusInternalServerError)}
	clock := newFakeClock()
	o, _ := newTestOrchestrator(client, clock, "")

	report, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamTransient)

	assert.Equal(t, 3, client.createCalls)
	assert.Equal(t, 3, report.Job.Attempt)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.sleeps)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
	assert.Empty(t, client.deletedThreads)
	assert.Equal(t, http.StatusServiceUnavailable, Classify(err).Status)
}

func TestAnalyzeRetryRecovers(t *testing.T) {
	client := newFakeClient()
	client.createErrs = []error{statusErr(http.StatusTooManyRequests)}
	clock := newFakeClock()
	o, _ := newTestOrchestrator(client, clock, "")

	report, err := o.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Job.Attempt)
	assert.Equal(t, 2*time.Second, clock.sleeps[0])
}

func TestAnalyzeNonTransientCreateNotRetried(t *testing.T) {
	client := newFakeClient()
	client.createErrs = []error{&assistant.StatusError{Op: "create thread and run", StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"}}
	o, _ := newTestOrchestrator(client, newFakeClock(), "")

	_, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamQuota)
	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
	out := Classify(err)
	assert.Equal(t, http.StatusTooManyRequests, out.Status)
	assert.Equal(t, "upstream_busy", out.Code)
}

func TestAnalyzeRemoteTerminalStatuses(t *testing.T) {
	cases := []struct {
		status     string
		want       error
		wantStatus Status
	}{
		{"failed", ErrUpstreamRunFailed, StatusFailed},
		{"incomplete", ErrUpstreamRunFailed, StatusFailed},
		{"requires_action", ErrUpstreamRunFailed, StatusFailed},
		{"cancelled", ErrUpstreamCancelled, StatusCancelled},
		{"cancelling", ErrUpstreamCancelled, StatusCancelled},
		{"expired", ErrUpstreamExpired, StatusFailed},
		{"mystery", ErrUpstreamRunFailed, StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			client := newFakeClient()
			client.statuses = []string{"in_progress", tc.status}
			o, _ := newTestOrchestrator(client, newFakeClock(), "")

			report, err := o.Analyze(context.Background(), testDoc())
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.wantStatus, report.Job.Status)
			assert.Equal(t, 1, client.deletedFiles["file-1"])
			assert.Equal(t, 1, client.deletedThreads["thread-1"])
			assert.Equal(t, http.StatusInternalServerError, Classify(err).Status)
		})
	}
}

func TestAnalyzeParseFailureCleansUp(t *testing.T) {
	replies := map[string]string{
		"multiple objects": `{"overall":{"score_0_to_100":50}} and also {"overall":{"score_0_to_100":60}}`,
		"no object":        "I could not analyze this resume.",
		"schema mismatch":  `{"overall":{"score_0_to_100":150},"breakdown":{},"recommendations":[]}`,
		"truncated":        `{"overall":{"score_0_to_100":50}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			client := newFakeClient()
			client.messages = assistantReply(reply)
			o, _ := newTestOrchestrator(client, newFakeClock(), "")

			report, err := o.Analyze(context.Background(), testDoc())
			require.ErrorIs(t, err, ErrParse)
			assert.Equal(t, StatusFailed, report.Job.Status)
			assert.Equal(t, 1, client.deletedFiles["file-1"])
			assert.Equal(t, "analysis_unreadable", Classify(err).Code)
		})
	}
}

func TestAnalyzeTransientPollErrorIsMissedTick(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{"in_progress", "in_progress", "completed"}
	client.retrieveErrs[1] = statusErr(http.StatusBadGateway)
	clock := newFakeClock()
	o, _ := newTestOrchestrator(client, clock, "")

	_, err := o.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Equal(t, 3, client.retrieveCalls)
	for _, d := range clock.sleeps {
		assert.Equal(t, time.Second, d, "no backoff on polling")
	}
}

func TestAnalyzeFatalPollError(t *testing.T) {
	client := newFakeClient()
	client.retrieveErrs[1] = statusErr(http.StatusNotFound)
	o, _ := newTestOrchestrator(client, newFakeClock(), "")

	_, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamConfig)
	assert.Equal(t, 1, client.retrieveCalls)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
}

func TestAnalyzeCleanupFailureDoesNotMaskError(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{"expired"}
	client.deleteFileErr = statusErr(http.StatusInternalServerError)
	client.deleteThreadErr = statusErr(http.StatusInternalServerError)
	o, _ := newTestOrchestrator(client, newFakeClock(), "")

	_, err := o.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrUpstreamExpired)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
}

func TestAnalyzeCallerCancellationStillCleansUp(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{"in_progress"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, _ := newTestOrchestrator(client, newFakeClock(), "")

	report, err := o.Analyze(ctx, testDoc())
	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, StatusCancelled, report.Job.Status)
	assert.Equal(t, 1, client.deletedFiles["file-1"])
	assert.Equal(t, 1, client.deletedThreads["thread-1"])
}

func TestAnalyzeImmediateCompletionSkipsPolling(t *testing.T) {
	client := newFakeClient()
	client.initial = "completed"
	clock := newFakeClock()
	o, _ := newTestOrchestrator(client, clock, "")

	_, err := o.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Zero(t, client.retrieveCalls)
	assert.Empty(t, clock.sleeps)
}

func TestAnalyzeDeadlineBoundsInFlightCalls(t *testing.T) {
	client := newFakeClient()
	client.statuses = []string{assistant.RunInProgress}
	client.retrieveBlock = 5 * time.Second
	o := NewOrchestrator(client, Config{Timeout: 300 * time.Millisecond, PollInterval: 50 * time.Millisecond},
		WithExtractor(func([]byte, string, string) string { return "" }))

	started := time.Now()
	report, err := o.Analyze(context.Background(), testDoc())
	elapsed := time.Since(started)

	require.ErrorIs(t, err, ErrLocalTimeout)
	assert.Less(t, elapsed, 2*time.Second, "a stuck retrieval must not outlive the budget")
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Equal(t, StatusTimedOut, report.Job.Status)
	assert.Equal(t, 1, client.deletedFiles["file-1"], "cleanup runs on a live context")
	assert.Equal(t, 1, client.deletedThreads["thread-1"])
	assert.Equal(t, http.StatusServiceUnavailable, Classify(err).Status)
}
