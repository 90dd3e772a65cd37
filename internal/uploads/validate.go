package uploads

import (
	"fmt"
	"strconv"
)

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 5 << 20

const (
	msgBadFormat = "File must be PDF, DOC, or DOCX format"
	msgEmpty     = "File cannot be empty"
)

// Result is the outcome of Validate.
type Result struct {
	OK       bool
	Errors   []string
	FileType FileType
}

// Validate checks the declared size and type of doc. Every rule is evaluated
// so callers see all problems at once.
func Validate(doc Document, maxBytes int64) Result {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	var errs []string

	fileType, typeOK := detectFileType(doc)
	if !typeOK {
		errs = append(errs, msgBadFormat)
	}
	if doc.Size > maxBytes {
		errs = append(errs, SizeLimitMessage(maxBytes))
	}
	if doc.Size == 0 {
		errs = append(errs, msgEmpty)
	}

	return Result{
		OK:       len(errs) == 0,
		Errors:   errs,
		FileType: fileType,
	}
}

// detectFileType accepts either the declared MIME type or the extension.
func detectFileType(doc Document) (FileType, bool) {
	if ft, ok := allowedContentTypes[doc.NormalizedMimeType()]; ok {
		return ft, true
	}
	if ft, ok := allowedExtensions[doc.Extension()]; ok {
		return ft, true
	}
	return "", false
}

// SizeLimitMessage is the error shown for uploads above maxBytes.
func SizeLimitMessage(maxBytes int64) string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return fmt.Sprintf("File size must be less than %sMB", formatMB(maxBytes))
}

func formatMB(n int64) string {
	return strconv.FormatFloat(float64(n)/(1024*1024), 'f', -1, 64)
}
