// Package control cross-checks the control records of a NACHA file against
// the totals computed from its entry detail records.
package control

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/domain"
)

// Policy says what a control total mismatch does to a conversion
type Policy string

const (
	PolicyIgnore Policy = "ignore"
	PolicyWarn   Policy = "warn"
	PolicyFail   Policy = "fail"
)

// ParsePolicy accepts ignore, warn or fail, case-insensitively. Empty means warn.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyWarn, nil
	case PolicyIgnore, PolicyWarn, PolicyFail:
		return p, nil
	}
	return "", fmt.Errorf("unknown control total policy %q", s)
}

// Checker runs its checks against every control record of a batch
type Checker struct {
	policy Policy
	checks []Check
	log    *logrus.Logger
}

// NewChecker creates a Checker with the given policy and checks. Without
// checks it uses entry count, entry hash, debit total and credit total.
func NewChecker(policy Policy, checks ...Check) *Checker {
	if len(checks) == 0 {
		checks = []Check{
			NewEntryCountCheck(),
			NewEntryHashCheck(),
			NewDebitTotalCheck(),
			NewCreditTotalCheck(),
		}
	}
	if policy == "" {
		policy = PolicyWarn
	}

	return &Checker{
		policy: policy,
		checks: checks,
		log:    logrus.New(),
	}
}

// SetLogger sets a custom logger for the checker
func (c *Checker) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		c.log = logger
	}
}

// Policy returns the configured policy.
func (c *Checker) Policy() Policy {
	return c.policy
}

// FindMismatches returns every disagreement, batch control first. The batch
// control is only checked when the file holds a single batch.
func (c *Checker) FindMismatches(batch domain.PaymentBatch) []Mismatch {
	var sources []Totals
	if batch.BatchCount <= 1 {
		bc := batch.BatchControl
		sources = append(sources, Totals{
			Source:            "batch control",
			EntryAddendaCount: bc.EntryAddendaCount,
			EntryHash:         bc.EntryHash,
			TotalDebitAmount:  bc.TotalDebitAmount,
			TotalCreditAmount: bc.TotalCreditAmount,
		})
	}
	fc := batch.FileControl
	sources = append(sources, Totals{
		Source:            "file control",
		EntryAddendaCount: fc.EntryAddendaCount,
		EntryHash:         fc.EntryHash,
		TotalDebitAmount:  fc.TotalDebitAmount,
		TotalCreditAmount: fc.TotalCreditAmount,
	})

	var mismatches []Mismatch
	for _, totals := range sources {
		for _, check := range c.checks {
			if m, found := check.Verify(batch, totals); found {
				mismatches = append(mismatches, m)
			}
		}
	}
	return mismatches
}

// Apply enforces the policy. Under warn each mismatch becomes a warning;
// under fail the first one is returned as a content error.
func (c *Checker) Apply(batch domain.PaymentBatch) ([]domain.Warning, error) {
	if c.policy == PolicyIgnore {
		return nil, nil
	}

	mismatches := c.FindMismatches(batch)
	if len(mismatches) == 0 {
		return nil, nil
	}

	if c.policy == PolicyFail {
		return nil, &domain.ParseError{
			Format: string(domain.FormatNACHA),
			Err:    fmt.Errorf("%w: %s", domain.ErrControlMismatch, mismatches[0]),
		}
	}

	warnings := make([]domain.Warning, 0, len(mismatches))
	for _, m := range mismatches {
		c.log.WithFields(logrus.Fields{
			"check":    m.Check,
			"source":   m.Source,
			"declared": m.Declared,
			"computed": m.Computed,
		}).Warn("control total mismatch")
		warnings = append(warnings, domain.Warning{Message: "control total mismatch: " + m.String()})
	}
	return warnings, nil
}
