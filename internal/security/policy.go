package security

import "strings"

// InjectionPolicy decides whether a field value looks like an injection
// attempt. Implementations are heuristics, not parsers; they will both over-
// and under-reject, which is why the policy is pluggable.
type InjectionPolicy interface {
	// Check returns the matched category ("sql", "script", "command", ...)
	// and true when value must be rejected.
	Check(value string) (category string, matched bool)
}

// InjectionRule is one category of blocked substrings.
type InjectionRule struct {
	Category string
	Patterns []string
}

// SubstringPolicy rejects values containing any pattern of any rule,
// compared case-insensitively.
type SubstringPolicy struct {
	rules []InjectionRule
}

// NewSubstringPolicy creates a SubstringPolicy from rules. Patterns are
// lower-cased once here.
func NewSubstringPolicy(rules ...InjectionRule) *SubstringPolicy {
	normalized := make([]InjectionRule, 0, len(rules))
	for _, rule := range rules {
		patterns := make([]string, 0, len(rule.Patterns))
		for _, p := range rule.Patterns {
			if p = strings.ToLower(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		normalized = append(normalized, InjectionRule{Category: rule.Category, Patterns: patterns})
	}
	return &SubstringPolicy{rules: normalized}
}

// DefaultInjectionPolicy returns the SQL, script and command blocklist.
func DefaultInjectionPolicy() *SubstringPolicy {
	return NewSubstringPolicy(
		InjectionRule{Category: "sql", Patterns: []string{"' or ", "union select", "drop table", "insert into"}},
		InjectionRule{Category: "script", Patterns: []string{"<script", "javascript:", "vbscript:", "onload="}},
		InjectionRule{Category: "command", Patterns: []string{"cmd.exe", "/bin/sh", "powershell", "$("}},
	)
}

// Check implements InjectionPolicy
func (p *SubstringPolicy) Check(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	lower := strings.ToLower(value)
	for _, rule := range p.rules {
		for _, pattern := range rule.Patterns {
			if strings.Contains(lower, pattern) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
