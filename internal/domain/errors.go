package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent      = errors.New("content is empty")
	ErrNoRecords         = errors.New("no records found")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrControlMismatch   = errors.New("control totals do not match entries")
)

// ParseError is a content error: the input could not be turned into a model.
type ParseError struct {
	Format string
	Line   int // 0 when the error is not tied to a line
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SecurityError is raised by input validation and XML name/value checks.
// Reason is safe to show; Detail goes to the audit log only.
type SecurityError struct {
	Reason string
	Detail string
}

func (e *SecurityError) Error() string {
	return e.Reason
}

// NewSecurityError returns a *SecurityError with the given reason and detail.
func NewSecurityError(reason, detail string) *SecurityError {
	return &SecurityError{Reason: reason, Detail: detail}
}

// UsageError reports API misuse by the caller, e.g. ending a document twice.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return e.Op + ": " + e.Msg
}

// IsSecurityError reports whether err wraps a *SecurityError.
func IsSecurityError(err error) bool {
	var secErr *SecurityError
	return errors.As(err, &secErr)
}

// IsUsageError reports whether err wraps a *UsageError.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}
