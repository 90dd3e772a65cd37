// Package uploads holds the uploaded document model and its validation rules.
package uploads

import (
	"path/filepath"
	"strings"
)

// FileType is the accepted document family.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOC  FileType = "doc"
	FileTypeDOCX FileType = "docx"

	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedContentTypes = map[string]FileType{
	MimePDF:  FileTypePDF,
	MimeDOC:  FileTypeDOC,
	MimeDOCX: FileTypeDOCX,
}

var allowedExtensions = map[string]FileType{
	".pdf":  FileTypePDF,
	".doc":  FileTypeDOC,
	".docx": FileTypeDOCX,
}

// Document is an uploaded file as received from the client. It is never
// mutated after construction.
type Document struct {
	Data     []byte
	Name     string
	MimeType string
	Size     int64
}

// NewDocument builds a Document whose Size is the payload length.
func NewDocument(data []byte, name, mimeType string) Document {
	return Document{
		Data:     data,
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}
}

// Extension returns the lower-cased file-name extension including the dot.
func (d Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// NormalizedMimeType strips parameters and lower-cases the declared MIME type.
func (d Document) NormalizedMimeType() string {
	clean, _, _ := strings.Cut(d.MimeType, ";")
	return strings.ToLower(strings.TrimSpace(clean))
}

// ContentTypeFor returns the canonical MIME type for the document's family,
// preferring the declared type when it is already accepted.
func (d Document) ContentTypeFor() string {
	if _, ok := allowedContentTypes[d.NormalizedMimeType()]; ok {
		return d.NormalizedMimeType()
	}
	switch allowedExtensions[d.Extension()] {
	case FileTypePDF:
		return MimePDF
	case FileTypeDOC:
		return MimeDOC
	case FileTypeDOCX:
		return MimeDOCX
	}
	return "application/octet-stream"
}
