// Package extract recovers plain text from uploaded resumes when the binary
// cannot be sent upstream as-is.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MaxFallbackBytes bounds how much of the raw payload the byte filter reads.
	MaxFallbackBytes = 50000
)

// Text returns the best-effort plain text of data. Structured extraction is
// tried first for PDF and DOCX; when it fails or yields nothing the printable
// bytes of the payload are used instead. It never fails.
func Text(data []byte, mimeType, fileName string) string {
	if len(data) == 0 {
		return ""
	}
	if text, err := structured(data, mimeType, fileName); err == nil {
		if cleaned := collapseSpaces(text); cleaned != "" {
			return cleaned
		}
	}
	return PrintableText(data)
}

func structured(data []byte, mimeType, fileName string) (string, error) {
	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return "", errors.New("no structured extractor")
	}
}

// PrintableText keeps printable ASCII plus line breaks from the first
// MaxFallbackBytes of data, turns everything else into spaces and collapses
// whitespace runs.
func PrintableText(data []byte) string {
	if len(data) > MaxFallbackBytes {
		data = data[:MaxFallbackBytes]
	}
	buf := make([]byte, len(data))
	for i, b := range data {
		if (b >= 0x20 && b <= 0x7e) || b == '\n' || b == '\r' {
			buf[i] = b
		} else {
			buf[i] = ' '
		}
	}
	return collapseSpaces(string(buf))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractPDF(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", rec)
		}
	}()
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(raw)
}

func stripDocxXML(raw []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" || t.Name.Local == "tab" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean, _, _ := strings.Cut(mimeType, ";")
	clean = strings.ToLower(strings.TrimSpace(clean))
	switch clean {
	case mimePDF, mimeDOCX:
		return clean
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return mimePDF
	}
	if isDocxZip(data) {
		return mimeDOCX
	}
	return clean
}

func isDocxZip(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("PK")) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
