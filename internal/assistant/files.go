package assistant

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// File is an uploaded file object.
type File struct {
	ID       string `json:"id"`
	Bytes    int64  `json:"bytes"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
}

// UploadFile registers data as a file usable by assistants.
func (c *Client) UploadFile(ctx context.Context, name, contentType string, data []byte) (File, error) {
	const op = "upload file"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files", &body)
	if err != nil {
		return File{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out File
	if err := c.do(op, req, &out); err != nil {
		return File{}, err
	}
	if out.ID == "" {
		return File{}, fmt.Errorf("%s: response missing id", op)
	}
	return out, nil
}

// DeleteFile removes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, "delete file", http.MethodDelete, "/files/"+url.PathEscape(fileID), nil, nil)
}
