package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Run statuses reported by the API.
const (
	RunQueued         = "queued"
	RunInProgress     = "in_progress"
	RunRequiresAction = "requires_action"
	RunCancelling     = "cancelling"
	RunCancelled      = "cancelled"
	RunFailed         = "failed"
	RunCompleted      = "completed"
	RunIncomplete     = "incomplete"
	RunExpired        = "expired"
)

// Run is the subset of the run object the scanner reads.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	LastError *RunError `json:"last_error,omitempty"`
}

// RunError is the failure reported on a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Message is a thread message.
type Message struct {
	ID      string         `json:"id"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one part of a message body.
type ContentBlock struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

// ThreadRunRequest describes the single user message that starts a run.
// When FileID is set the file is attached for file_search.
type ThreadRunRequest struct {
	Content string
	FileID  string
}

type attachmentTool struct {
	Type string `json:"type"`
}

type attachment struct {
	FileID string           `json:"file_id"`
	Tools  []attachmentTool `json:"tools"`
}

type threadMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type createThreadAndRunBody struct {
	AssistantID string `json:"assistant_id"`
	Thread      struct {
		Messages []threadMessage `json:"messages"`
	} `json:"thread"`
}

// CreateThreadAndRun creates a thread holding one user message and starts a run on it.
func (c *Client) CreateThreadAndRun(ctx context.Context, in ThreadRunRequest) (Run, error) {
	msg := threadMessage{Role: "user", Content: in.Content}
	if in.FileID != "" {
		msg.Attachments = []attachment{{
			FileID: in.FileID,
			Tools:  []attachmentTool{{Type: "file_search"}},
		}}
	}
	body := createThreadAndRunBody{AssistantID: c.assistantID}
	body.Thread.Messages = []threadMessage{msg}

	var out Run
	if err := c.doJSON(ctx, "create thread and run", http.MethodPost, "/threads/runs", body, &out); err != nil {
		return Run{}, err
	}
	if out.ID == "" || out.ThreadID == "" {
		return Run{}, fmt.Errorf("create thread and run: response missing identifiers")
	}
	return out, nil
}

// RetrieveRun fetches the current state of a run.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(threadID), url.PathEscape(runID))
	var out Run
	if err := c.doJSON(ctx, "retrieve run", http.MethodGet, path, nil, &out); err != nil {
		return Run{}, err
	}
	return out, nil
}

type messageList struct {
	Data []Message `json:"data"`
}

// ListMessages returns the thread's messages, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=20", url.PathEscape(threadID))
	var out messageList
	if err := c.doJSON(ctx, "list messages", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteThread removes a thread and its messages.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.doJSON(ctx, "delete thread", http.MethodDelete, "/threads/"+url.PathEscape(threadID), nil, nil)
}

// FirstAssistantText returns the first text block of the newest assistant message.
func FirstAssistantText(messages []Message) (string, bool) {
	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		for _, block := range m.Content {
			if block.Type == "text" && block.Text != nil {
				return block.Text.Value, true
			}
		}
		return "", false
	}
	return "", false
}
