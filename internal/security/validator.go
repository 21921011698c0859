// Package security guards a conversion before and while parsing: file size
// and line ceilings, path allow-listing, and injection heuristics on every
// extracted value. It also owns the error sanitizer and the audit channel.
package security

import (
	"errors"
	"fmt"
	"os"

	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/pkg/fileutil"
)

const (
	DefaultMaxFileSize int64 = 50 * 1024 * 1024
	DefaultMaxLines          = 1_000_000
)

// Limits bounds the input a conversion will accept.
type Limits struct {
	MaxFileSize int64
	MaxLines    int
}

// DefaultLimits returns 50 MB and 1,000,000 lines.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize, MaxLines: DefaultMaxLines}
}

// Validator runs the input/output checks of a conversion. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	limits    Limits
	paths     *PathPolicy
	injection InjectionPolicy
	audit     *AuditLogger
}

// NewValidator creates a Validator. Zero limits and nil policies fall back to
// the defaults.
func NewValidator(limits Limits, paths *PathPolicy, injection InjectionPolicy, audit *AuditLogger) *Validator {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}
	if limits.MaxLines <= 0 {
		limits.MaxLines = DefaultMaxLines
	}
	if paths == nil {
		paths = DefaultPathPolicy()
	}
	if injection == nil {
		injection = DefaultInjectionPolicy()
	}

	return &Validator{
		limits:    limits,
		paths:     paths,
		injection: injection,
		audit:     audit,
	}
}

// Limits returns the configured ceilings.
func (v *Validator) Limits() Limits {
	return v.limits
}

// InjectionPolicy returns the policy used by CheckValue.
func (v *Validator) InjectionPolicy() InjectionPolicy {
	return v.injection
}

// ValidatePath resolves raw to its canonical form inside the allow-list.
func (v *Validator) ValidatePath(raw string) (string, error) {
	canonical, err := v.paths.Resolve(raw)
	if err != nil {
		v.audit.Violation("path validation failed", err)
		return "", err
	}
	return canonical, nil
}

// ValidateFile enforces the size and line-count ceilings on an existing file.
func (v *Validator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return v.reject(domain.NewSecurityError("File does not exist or is not readable", err.Error()))
	}
	if info.IsDir() {
		return v.reject(domain.NewSecurityError("Input path is a directory", path))
	}

	if err := v.CheckSize(info.Size()); err != nil {
		return err
	}

	lines, err := fileutil.NewLineReader(path).CountLines(v.limits.MaxLines)
	switch {
	case errors.Is(err, fileutil.ErrTooManyLines):
		return v.CheckLineCount(lines)
	case errors.Is(err, fileutil.ErrLineTooLong):
		return v.reject(domain.NewSecurityError("File contains an oversized line", err.Error()))
	case err != nil:
		return fmt.Errorf("counting lines: %w", err)
	}

	return nil
}

// CheckSize rejects sizes above the configured maximum.
func (v *Validator) CheckSize(size int64) error {
	if size > v.limits.MaxFileSize {
		return v.reject(domain.NewSecurityError("File size exceeds maximum allowed size",
			fmt.Sprintf("%d bytes > %d", size, v.limits.MaxFileSize)))
	}
	return nil
}

// CheckLineCount rejects line counts above the configured maximum. Counting
// may stop early, so lines is a lower bound.
func (v *Validator) CheckLineCount(lines int) error {
	if lines > v.limits.MaxLines {
		return v.reject(domain.NewSecurityError("File contains too many lines",
			fmt.Sprintf("at least %d lines, limit %d", lines, v.limits.MaxLines)))
	}
	return nil
}

// CheckValue scans one extracted field value with the injection policy.
func (v *Validator) CheckValue(field, value string) error {
	return CheckInjection(v.injection, v.audit, field, value)
}

func (v *Validator) reject(err *domain.SecurityError) error {
	v.audit.Violation("input validation failed", err)
	return err
}

// CheckInjection runs policy against value and returns a *domain.SecurityError
// on a match. It is shared by the validator and the XML builder.
func CheckInjection(policy InjectionPolicy, audit *AuditLogger, field, value string) error {
	if policy == nil {
		return nil
	}

	category, matched := policy.Check(value)
	if !matched {
		return nil
	}

	err := domain.NewSecurityError("Invalid input detected",
		fmt.Sprintf("%s injection pattern in %s", category, field))
	audit.Violation(category+" injection attempt detected", err)
	return err
}
