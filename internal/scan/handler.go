// Package scan exposes the resume analysis endpoint.
package scan

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-scanner/internal/analysis"
	"resume-scanner/internal/shared/server/middleware"
	"resume-scanner/internal/shared/server/respond"
	"resume-scanner/internal/shared/telemetry"
	"resume-scanner/internal/shared/util"
	"resume-scanner/internal/uploads"
)

const (
	successMessage       = "Resume analyzed successfully"
	msgInvalidRequest    = "Invalid request format. Please ensure you are uploading a file properly."
	msgNoFile            = "No file provided"
	multipartOverheadMax = 1 << 20
)

// Analyzer runs a document through the assistant.
type Analyzer interface {
	Analyze(ctx context.Context, doc uploads.Document) (analysis.Report, error)
}

// LeadRecorder captures the optional email sent with an upload.
type LeadRecorder interface {
	RecordUpload(ctx context.Context, email, fileName string)
	RecordCompletion(ctx context.Context, email string)
}

// Handler serves POST /analyze.
type Handler struct {
	Analyzer       Analyzer
	Leads          LeadRecorder
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. leads may be nil.
func NewHandler(analyzer Analyzer, leads LeadRecorder, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = uploads.DefaultMaxBytes
	}
	return &Handler{Analyzer: analyzer, Leads: leads, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the analysis route. Extra handlers run before it.
func (h *Handler) RegisterRoutes(rg gin.IRoutes, before ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, before...), h.analyze)
	rg.POST("/analyze", handlers...)
}

func (h *Handler) analyze(c *gin.Context) {
	if !isMultipart(c.GetHeader("Content-Type")) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", msgInvalidRequest)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverheadMax)

	doc, err := h.readDocument(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respond.Error(c, http.StatusBadRequest, "validation_error", uploads.SizeLimitMessage(h.MaxUploadBytes))
		case errors.Is(err, http.ErrMissingFile):
			respond.Error(c, http.StatusBadRequest, "validation_error", msgNoFile)
		default:
			respond.Error(c, http.StatusBadRequest, "invalid_request", msgInvalidRequest)
		}
		return
	}

	if res := uploads.Validate(doc, h.MaxUploadBytes); !res.OK {
		respond.Error(c, http.StatusBadRequest, "validation_error", strings.Join(res.Errors, ", "))
		return
	}

	email := c.PostForm("email")
	ctx := analysis.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	if h.Leads != nil {
		h.Leads.RecordUpload(ctx, email, doc.Name)
	}

	report, err := h.Analyzer.Analyze(ctx, doc)
	c.Set("jobId", report.Job.ID)
	if report.Job.Status != "" {
		c.Set("statusTransition", string(report.Job.Status))
	}
	if err != nil {
		out := analysis.Classify(err)
		telemetry.Warn("scan.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"job_id":     report.Job.ID,
			"code":       out.Code,
			"file_name":  doc.Name,
			"size_bytes": doc.Size,
		})
		respond.Error(c, out.Status, out.Code, out.Message)
		return
	}

	if h.Leads != nil {
		h.Leads.RecordCompletion(ctx, email)
	}
	respond.OK(c, report.Result, successMessage)
}

func (h *Handler) readDocument(c *gin.Context) (uploads.Document, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return uploads.Document{}, err
	}
	f, err := header.Open()
	if err != nil {
		return uploads.Document{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return uploads.Document{}, err
	}
	return uploads.NewDocument(data, util.SanitizeFileName(header.Filename), header.Header.Get("Content-Type")), nil
}

func isMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "multipart/form-data"
}
