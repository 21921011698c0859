package security

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/domain"
)

// AuditLogger is the security audit channel, kept apart from user-facing
// messages. A nil *AuditLogger discards everything.
type AuditLogger struct {
	log *logrus.Logger
}

// NewAuditLogger writes audit events to log, or to the logrus standard
// logger when log is nil.
func NewAuditLogger(log *logrus.Logger) *AuditLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuditLogger{log: log}
}

// Event records a security-relevant event.
func (a *AuditLogger) Event(event, details string) {
	if a == nil {
		return
	}
	a.log.WithFields(logrus.Fields{
		"channel": "security",
		"details": SanitizeForLogging(details),
	}).Info("SECURITY_EVENT: " + SanitizeForLogging(event))
}

// Violation records a rejected operation. Non-security errors are logged
// by type only.
func (a *AuditLogger) Violation(event string, err error) {
	if a == nil || err == nil {
		return
	}

	entry := a.log.WithField("channel", "security")
	var secErr *domain.SecurityError
	if errors.As(err, &secErr) {
		entry.WithFields(logrus.Fields{
			"reason": SanitizeForLogging(secErr.Reason),
			"detail": SanitizeForLogging(secErr.Detail),
		}).Warn("SECURITY_VIOLATION: " + SanitizeForLogging(event))
		return
	}
	entry.WithField("error_type", errorType(err)).Warn("SECURITY_EVENT: " + SanitizeForLogging(event))
}

func errorType(err error) string {
	var parseErr *domain.ParseError
	var usageErr *domain.UsageError
	switch {
	case errors.As(err, &parseErr):
		return "content"
	case errors.As(err, &usageErr):
		return "usage"
	}
	return "io"
}
