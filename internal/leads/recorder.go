package leads

import (
	"context"
	"sync"
	"time"

	"resume-scanner/internal/shared/telemetry"
	"resume-scanner/internal/shared/util"
)

const defaultWriteTimeout = 10 * time.Second

// Recorder writes leads in the background. Store failures never reach the caller.
type Recorder struct {
	store   Store
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store Store, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Recorder{store: store, timeout: timeout}
}

// RecordUpload saves the email with the uploaded file name. Invalid emails are skipped.
func (r *Recorder) RecordUpload(ctx context.Context, rawEmail, fileName string) {
	email, ok := NormalizeEmail(rawEmail)
	if !ok || r == nil || r.store == nil {
		return
	}
	r.spawn(ctx, "leads.upsert", email, func(ctx context.Context) error {
		return r.store.Upsert(ctx, Lead{Email: email, ResumeFilename: fileName})
	})
}

// RecordCompletion flags the email's analysis as finished.
func (r *Recorder) RecordCompletion(ctx context.Context, rawEmail string) {
	email, ok := NormalizeEmail(rawEmail)
	if !ok || r == nil || r.store == nil {
		return
	}
	r.spawn(ctx, "leads.complete", email, func(ctx context.Context) error {
		return r.store.MarkAnalysisComplete(ctx, email)
	})
}

// Wait blocks until pending writes finish.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Recorder) spawn(parent context.Context, op, email string, write func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
		defer cancel()
		if err := write(ctx); err != nil {
			telemetry.Warn("leads.write.failed", map[string]any{
				"op":       op,
				"email_id": util.RedactKey(email),
				"error":    err.Error(),
			})
		}
	}()
}
