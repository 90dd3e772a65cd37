package analysis

import "time"

// Status is the local state of a job.
type Status string

const (
	StatusCreated   Status = "created"
	StatusUploading Status = "uploading"
	StatusPolling   Status = "polling"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	default:
		return false
	}
}

// Path is how the document reached the assistant.
type Path string

const (
	PathAttachment Path = "attachment"
	PathInlineText Path = "inline_text"
)

// Job is one document's trip through the assistant. It is owned by a single
// request and never shared.
type Job struct {
	ID           string
	RemoteFileID string
	ThreadID     string
	RunID        string
	Status       Status
	StartedAt    time.Time
	Attempt      int
	Path         Path
}

func newJob(id string, startedAt time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    StatusCreated,
		StartedAt: startedAt,
	}
}

// transition moves the job to next and returns the previous status.
// A job in a terminal state stays there.
func (j *Job) transition(next Status) (Status, bool) {
	prev := j.Status
	if prev.Terminal() || prev == next {
		return prev, false
	}
	j.Status = next
	return prev, true
}

// terminalStatusFor picks the terminal status that matches a failure kind.
func terminalStatusFor(kind Kind) Status {
	switch kind {
	case KindLocalTimeout:
		return StatusTimedOut
	case KindUpstreamCancelled, KindAborted:
		return StatusCancelled
	default:
		return StatusFailed
	}
}
