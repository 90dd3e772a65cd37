package analysis

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-scanner/internal/assistant"
	"resume-scanner/internal/extract"
	"resume-scanner/internal/shared/metrics"
	"resume-scanner/internal/shared/telemetry"
	"resume-scanner/internal/uploads"
)

// AssistantClient is the subset of the Assistants API the orchestrator drives.
type AssistantClient interface {
	CheckConfig() error
	UploadFile(ctx context.Context, name, contentType string, data []byte) (assistant.File, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateThreadAndRun(ctx context.Context, in assistant.ThreadRunRequest) (assistant.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error)
	ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// Extractor turns raw document bytes into plain text.
type Extractor func(data []byte, mimeType, fileName string) string

// Config bounds a single job.
type Config struct {
	Timeout           time.Duration
	PollInterval      time.Duration
	Retry             RetryPolicy
	MinExtractedChars int
	CleanupTimeout    time.Duration
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           120 * time.Second,
		PollInterval:      time.Second,
		Retry:             RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second},
		MinExtractedChars: 50,
		CleanupTimeout:    10 * time.Second,
	}
}

// Orchestrator drives documents through upload, run creation, polling,
// result parsing and cleanup.
type Orchestrator struct {
	client  AssistantClient
	extract Extractor
	clock   Clock
	cfg     Config
	newID   func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithExtractor replaces the local text extractor.
func WithExtractor(e Extractor) Option {
	return func(o *Orchestrator) { o.extract = e }
}

// WithIDGenerator replaces job ID generation.
func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// NewOrchestrator builds an orchestrator. Zero config values take defaults.
func NewOrchestrator(client AssistantClient, cfg Config, opts ...Option) *Orchestrator {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = def.Retry.BaseDelay
	}
	if cfg.MinExtractedChars <= 0 {
		cfg.MinExtractedChars = def.MinExtractedChars
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = def.CleanupTimeout
	}
	o := &Orchestrator{
		client:  client,
		extract: extract.Text,
		clock:   SystemClock{},
		cfg:     cfg,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Report describes a finished job. Job is always set; Result only on success.
type Report struct {
	Job    Job
	Result *Result
}

// Analyze runs doc through the assistant and returns its assessment. Every
// remote resource created along the way is released before it returns.
func (o *Orchestrator) Analyze(ctx context.Context, doc uploads.Document) (report Report, err error) {
	job := newJob(o.newID(), o.clock.Now())
	metrics.IncJobStarted()

	defer func() {
		o.cleanup(ctx, job)
		o.finish(ctx, job, err)
		report.Job = *job
	}()

	// Every remote call is bounded by the job budget. Cleanup keeps the caller's ctx.
	jctx, cancel := context.WithTimeoutCause(ctx, o.cfg.Timeout, errBudgetExhausted)
	defer cancel()

	result, err := o.run(jctx, job, doc)
	if err != nil {
		return report, err
	}
	report.Result = result
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, job *Job, doc uploads.Document) (*Result, error) {
	if err := o.client.CheckConfig(); err != nil {
		return nil, newError(KindUpstreamConfig, "check config", err)
	}

	o.transition(ctx, job, StatusUploading)
	req, err := o.submission(ctx, job, doc)
	if err != nil {
		return nil, err
	}

	run, err := o.createRun(ctx, job, req)
	if err != nil {
		return nil, err
	}
	job.ThreadID = run.ThreadID
	job.RunID = run.ID

	o.transition(ctx, job, StatusPolling)
	if err := o.poll(ctx, job, run); err != nil {
		return nil, err
	}
	return o.fetchResult(ctx, job)
}

// submission uploads the document as an attachment, falling back to inline
// text when the upload is rejected as too large.
func (o *Orchestrator) submission(ctx context.Context, job *Job, doc uploads.Document) (assistant.ThreadRunRequest, error) {
	file, err := o.client.UploadFile(ctx, doc.Name, doc.ContentTypeFor(), doc.Data)
	if err == nil {
		job.RemoteFileID = file.ID
		job.Path = PathAttachment
		return assistant.ThreadRunRequest{Content: attachmentPrompt(), FileID: file.ID}, nil
	}
	kind := o.kindFor(ctx, err)
	if kind != KindUpstreamPayloadTooLarge {
		return assistant.ThreadRunRequest{}, newError(kind, "upload file", err)
	}

	metrics.IncInlineFallback()
	text := o.extract(doc.Data, doc.MimeType, doc.Name)
	chars := utf8.RuneCountInString(text)
	telemetry.Info("analysis.fallback", map[string]any{
		"request_id":      requestIDFromContext(ctx),
		"job_id":          job.ID,
		"extracted_chars": chars,
	})
	if chars < o.cfg.MinExtractedChars {
		return assistant.ThreadRunRequest{}, newError(KindExtractionInsufficient, "extract text", ErrExtractionInsufficient)
	}
	job.Path = PathInlineText
	return assistant.ThreadRunRequest{Content: inlinePrompt(text)}, nil
}

func (o *Orchestrator) fetchResult(ctx context.Context, job *Job) (*Result, error) {
	messages, err := o.client.ListMessages(ctx, job.ThreadID)
	if err != nil {
		return nil, newError(o.kindFor(ctx, err), "list messages", err)
	}
	text, ok := assistant.FirstAssistantText(messages)
	if !ok {
		return nil, newError(KindParse, "read response", errors.New("no assistant text in thread"))
	}
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, newError(KindParse, "scan response", err)
	}
	result, err := decodeResult(raw)
	if err != nil {
		return nil, newError(KindParse, "decode response", err)
	}
	result.normalize(o.clock.Now())
	o.transition(ctx, job, StatusCompleted)
	return result, nil
}

// errBudgetExhausted is the cancellation cause when a job outlives its timeout.
var errBudgetExhausted = errors.New("job time budget exhausted")

// interruptKind classifies a done context: the job deadline is a local
// timeout, anything else came from the caller.
func interruptKind(ctx context.Context) Kind {
	if errors.Is(context.Cause(ctx), errBudgetExhausted) {
		return KindLocalTimeout
	}
	return KindAborted
}

// kindFor maps a client error onto the failure taxonomy.
func (o *Orchestrator) kindFor(ctx context.Context, err error) Kind {
	if ctx.Err() != nil {
		return interruptKind(ctx)
	}
	switch assistant.Classify(err) {
	case assistant.ClassConfig:
		return KindUpstreamConfig
	case assistant.ClassQuota:
		return KindUpstreamQuota
	case assistant.ClassPayloadTooLarge:
		return KindUpstreamPayloadTooLarge
	default:
		return KindUpstreamTransient
	}
}

// cleanup releases remote resources on a context that outlives the caller.
// It runs exactly once per job; failures are logged and counted only.
func (o *Orchestrator) cleanup(ctx context.Context, job *Job) {
	if job.RemoteFileID == "" && job.ThreadID == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.CleanupTimeout)
	defer cancel()

	if job.RemoteFileID != "" {
		if err := o.client.DeleteFile(cctx, job.RemoteFileID); err != nil {
			metrics.IncCleanupFailed()
			telemetry.Error("analysis.cleanup.failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     job.ID,
				"resource":   "file",
				"error":      sanitizeError(err),
			})
		}
	}
	if job.ThreadID != "" {
		if err := o.client.DeleteThread(cctx, job.ThreadID); err != nil {
			telemetry.Warn("analysis.cleanup.failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     job.ID,
				"resource":   "thread",
				"error":      sanitizeError(err),
			})
		}
	}
}

func (o *Orchestrator) finish(ctx context.Context, job *Job, err error) {
	durationMs := float64(o.clock.Now().Sub(job.StartedAt).Microseconds()) / 1000.0
	metrics.ObserveJobDurationMs(durationMs)
	if err == nil {
		metrics.IncJobCompleted()
		return
	}
	kind, _ := KindOf(err)
	metrics.IncJobFailed(string(kind))
	o.transition(ctx, job, terminalStatusFor(kind))
	telemetry.Error("analysis.failed", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"job_id":      job.ID,
		"kind":        string(kind),
		"path":        string(job.Path),
		"attempt":     job.Attempt,
		"duration_ms": durationMs,
		"error":       sanitizeError(err),
	})
}

func (o *Orchestrator) transition(ctx context.Context, job *Job, next Status) {
	prev, ok := job.transition(next)
	if !ok {
		return
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"status":            string(next),
		"status_transition": string(prev) + "->" + string(next),
		"path":              string(job.Path),
	})
}
