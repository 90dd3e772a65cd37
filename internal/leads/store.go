package leads

import (
	"context"
	"regexp"
	"strings"
)

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "lead not found" }

// Store persists lead emails.
type Store interface {
	Upsert(ctx context.Context, lead Lead) error
	MarkAnalysisComplete(ctx context.Context, email string) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases raw, reporting whether the result looks like an address.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > 320 || !emailPattern.MatchString(email) {
		return "", false
	}
	return email, true
}
