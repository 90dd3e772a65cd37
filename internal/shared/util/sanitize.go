package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

const maxFileNameLen = 255

// SanitizeFileName reduces a client-supplied name to its base name without
// path separators or control characters. Empty results become "resume".
func SanitizeFileName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = filepath.Base(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "." || s == "/" || s == ".." {
		s = ""
	}
	if len(s) > maxFileNameLen {
		s = s[len(s)-maxFileNameLen:]
	}
	if s == "" {
		return "resume"
	}
	return s
}

// Truncate shortens s to at most n bytes.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
