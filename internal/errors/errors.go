// internal/errors/errors.go
package errors

import (
	"fmt"
	"unicode/utf8"
)

// maxBodyRunes bounds how much of an upstream error body is kept.
const maxBodyRunes = 200

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// UpstreamError is returned when the GitHub API answers with a non-success status.
type UpstreamError struct {
	Status int
	Body   string
}

// NewUpstreamError builds an UpstreamError, keeping only the head of the body.
func NewUpstreamError(status int, body string) *UpstreamError {
	return &UpstreamError{Status: status, Body: truncate(body, maxBodyRunes)}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub API error %d: %s", e.Status, e.Body)
}

// ValidationError reports an input that does not satisfy an operation's schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrPaymentRequired is returned by the paywall when a priced operation is invoked without payment.
type ErrPaymentRequired struct {
	Operation string
	Price     int64
}

func (e *ErrPaymentRequired) Error() string {
	return fmt.Sprintf("payment of %d required for %q", e.Price, e.Operation)
}

// ErrUnknownOperation is returned when no operation is registered under a key.
type ErrUnknownOperation struct {
	Key string
}

func (e *ErrUnknownOperation) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Key)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
