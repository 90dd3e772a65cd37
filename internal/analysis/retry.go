package analysis

import (
	"context"
	"math"
	"time"

	"resume-scanner/internal/assistant"
	"resume-scanner/internal/shared/metrics"
	"resume-scanner/internal/shared/telemetry"
)

// RetryPolicy bounds thread+run creation retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// maxDelay stands in for a backoff too large to represent.
const maxDelay = time.Duration(math.MaxInt64)

// Delay is the wait after the given failed attempt: 2^attempt × BaseDelay,
// saturating at maxDelay. Callers clip it to the remaining budget.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		if d > maxDelay/2 {
			return maxDelay
		}
		d *= 2
	}
	return d
}

// createRun starts the thread and run, retrying only transient failures.
// Backoff sleeps count against the job's time budget.
func (o *Orchestrator) createRun(ctx context.Context, job *Job, req assistant.ThreadRunRequest) (assistant.Run, error) {
	policy := o.cfg.Retry
	var lastErr *Error
	for {
		job.Attempt++
		run, err := o.client.CreateThreadAndRun(ctx, req)
		if err == nil {
			return run, nil
		}
		lastErr = newError(o.kindFor(ctx, err), "create thread and run", err)
		telemetry.Warn("analysis.retry", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     job.ID,
			"attempt":    job.Attempt,
			"kind":       string(lastErr.Kind),
			"error":      sanitizeError(err),
		})
		if lastErr.Kind != KindUpstreamTransient || job.Attempt >= policy.MaxAttempts {
			return assistant.Run{}, lastErr
		}

		now := o.clock.Now()
		left := remainingBudget(job.StartedAt, now, o.cfg.Timeout)
		if left <= 0 {
			return assistant.Run{}, newError(KindLocalTimeout, "create thread and run", lastErr)
		}
		metrics.IncCreateRetry()
		if err := o.clock.Sleep(ctx, min(policy.Delay(job.Attempt), left)); err != nil {
			return assistant.Run{}, newError(interruptKind(ctx), "create thread and run", err)
		}
		if TimedOut(job.StartedAt, o.clock.Now(), o.cfg.Timeout) {
			return assistant.Run{}, newError(KindLocalTimeout, "create thread and run", lastErr)
		}
	}
}
