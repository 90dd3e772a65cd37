package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"resume-scanner/internal/assistant"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

type fakeClient struct {
	configErr error

	uploadErr error
	fileID    string
	uploads   int

	createErrs  []error
	createCalls int
	created     []assistant.ThreadRunRequest
	initial     string

	statuses      []string
	retrieveErrs  map[int]error
	retrieveCalls int
	retrieveBlock time.Duration
	lastError     *assistant.RunError

	messages []assistant.Message
	listErr  error

	deleteFileErr   error
	deletedFiles    map[string]int
	deletedThreads  map[string]int
	deleteThreadErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		fileID:         "file-1",
		initial:        assistant.RunQueued,
		statuses:       []string{assistant.RunInProgress, assistant.RunCompleted},
		retrieveErrs:   map[int]error{},
		deletedFiles:   map[string]int{},
		deletedThreads: map[string]int{},
		messages:       assistantReply(validResultJSON),
	}
}

func (f *fakeClient) CheckConfig() error { return f.configErr }

func (f *fakeClient) UploadFile(ctx context.Context, name, contentType string, data []byte) (assistant.File, error) {
	f.uploads++
	if f.uploadErr != nil {
		return assistant.File{}, f.uploadErr
	}
	return assistant.File{ID: f.fileID, Filename: name}, nil
}

func (f *fakeClient) DeleteFile(ctx context.Context, fileID string) error {
	f.deletedFiles[fileID]++
	return f.deleteFileErr
}

func (f *fakeClient) CreateThreadAndRun(ctx context.Context, in assistant.ThreadRunRequest) (assistant.Run, error) {
	f.createCalls++
	f.created = append(f.created, in)
	if f.createCalls <= len(f.createErrs) && f.createErrs[f.createCalls-1] != nil {
		return assistant.Run{}, f.createErrs[f.createCalls-1]
	}
	return assistant.Run{ID: "run-1", ThreadID: "thread-1", Status: f.initial}, nil
}

func (f *fakeClient) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	f.retrieveCalls++
	if f.retrieveBlock > 0 {
		select {
		case <-time.After(f.retrieveBlock):
		case <-ctx.Done():
			return assistant.Run{}, ctx.Err()
		}
	}
	if err, ok := f.retrieveErrs[f.retrieveCalls]; ok {
		return assistant.Run{}, err
	}
	idx := f.retrieveCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return assistant.Run{ID: runID, ThreadID: threadID, Status: f.statuses[idx], LastError: f.lastError}, nil
}

func (f *fakeClient) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

func (f *fakeClient) DeleteThread(ctx context.Context, threadID string) error {
	f.deletedThreads[threadID]++
	return f.deleteThreadErr
}

func assistantReply(text string) []assistant.Message {
	block := assistant.ContentBlock{Type: "text"}
	block.Text = &struct {
		Value string `json:"value"`
	}{Value: text}
	return []assistant.Message{
		{ID: "msg-2", Role: "assistant", Content: []assistant.ContentBlock{block}},
		{ID: "msg-1", Role: "user"},
	}
}

const validResultJSON = "Here is the assessment you asked for.\n```json\n" + `{
  "schema_version": "3.0.0",
  "generated_at": "2026-04-02T09:00:03Z",
  "overall": {"score_0_to_100": 72, "label": "Low Performance", "summary": "Strong backend profile with {templated} sections."},
  "breakdown": {
    "keyword_coverage": 8,
    "ats_compliance": 7.5,
    "job_match": null,
    "structure": 6,
    "ranking": 7,
    "readability": 8,
    "ghosted_risk_subscore_0_to_10": 3
  },
  "recommendations": [
    {"title": "Quantify impact", "description": "Add metrics such as \"cut p99 latency by 30%\" {numbers} to bullets.", "priority": "high"}
  ]
}` + "\n```"

func statusErr(code int) error {
	return &assistant.StatusError{Op: "fake", StatusCode: code}
}

func textOfLength(n int) string {
	return strings.Repeat("a", n)
}
