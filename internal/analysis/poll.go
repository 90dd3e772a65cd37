package analysis

import (
	"context"
	"errors"
	"fmt"

	"resume-scanner/internal/assistant"
	"resume-scanner/internal/shared/telemetry"
)

// poll waits for the run to leave queued/in_progress. The time budget is
// checked before every retrieval; a transient retrieval error only costs a tick.
func (o *Orchestrator) poll(ctx context.Context, job *Job, run assistant.Run) error {
	status := run.Status
	for {
		switch status {
		case assistant.RunCompleted:
			return nil
		case assistant.RunQueued, assistant.RunInProgress, "":
		default:
			return terminalRunError(status, run.LastError)
		}

		now := o.clock.Now()
		if TimedOut(job.StartedAt, now, o.cfg.Timeout) {
			return newError(KindLocalTimeout, "poll run", fmt.Errorf("run still %s after %s", status, o.cfg.Timeout))
		}
		wait := min(o.cfg.PollInterval, remainingBudget(job.StartedAt, now, o.cfg.Timeout))
		if err := o.clock.Sleep(ctx, wait); err != nil {
			return newError(interruptKind(ctx), "poll run", err)
		}
		if TimedOut(job.StartedAt, o.clock.Now(), o.cfg.Timeout) {
			return newError(KindLocalTimeout, "poll run", fmt.Errorf("run still %s after %s", status, o.cfg.Timeout))
		}

		next, err := o.client.RetrieveRun(ctx, job.ThreadID, job.RunID)
		if err != nil {
			kind := o.kindFor(ctx, err)
			if kind != KindUpstreamTransient {
				return newError(kind, "poll run", err)
			}
			telemetry.Warn("analysis.poll.missed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     job.ID,
				"error":      sanitizeError(err),
			})
			continue
		}
		run = next
		status = next.Status
	}
}

func terminalRunError(status string, lastErr *assistant.RunError) error {
	cause := fmt.Errorf("run %s", status)
	if lastErr != nil && lastErr.Message != "" {
		cause = fmt.Errorf("run %s: %s", status, lastErr.Message)
	}
	switch status {
	case assistant.RunCancelled, assistant.RunCancelling:
		return newError(KindUpstreamCancelled, "poll run", cause)
	case assistant.RunExpired:
		return newError(KindUpstreamExpired, "poll run", cause)
	case assistant.RunFailed, assistant.RunIncomplete, assistant.RunRequiresAction:
		return newError(KindUpstreamRunFailed, "poll run", cause)
	default:
		return newError(KindUpstreamRunFailed, "poll run", errors.Join(cause, errors.New("unrecognized run status")))
	}
}
