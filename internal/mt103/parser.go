// Package mt103 parses a SWIFT MT103 single customer credit transfer into
// the canonical model.
package mt103

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/extract"
)

// ValueChecker screens an extracted value before it reaches the model
type ValueChecker interface {
	CheckValue(field, value string) error
}

// Parser turns MT103 text into a domain.MT103Message
type Parser struct {
	checker ValueChecker
	log     *logrus.Logger
}

// NewParser creates a Parser. A nil checker accepts every value.
func NewParser(checker ValueChecker) *Parser {
	return &Parser{
		checker: checker,
		log:     logrus.New(),
	}
}

// SetLogger sets a custom logger for the parser
func (p *Parser) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		p.log = logger
	}
}

// Parse extracts every :TAG: field of content. Unknown tags and a short 32A
// produce warnings. The raw content and every field value, known tag or not,
// go through the checker and a rejection fails the parse. When the
// same tag appears twice the later value wins.
func (p *Parser) Parse(content string) (domain.MT103Message, []domain.Warning, error) {
	var msg domain.MT103Message
	var warnings []domain.Warning

	if strings.TrimSpace(content) == "" {
		return msg, nil, &domain.ParseError{Format: string(domain.FormatMT103), Err: domain.ErrEmptyContent}
	}

	// SWIFT header blocks never reach the model but are still input
	if err := p.check("content", content); err != nil {
		return domain.MT103Message{}, nil, err
	}

	text := normalize(content)
	found := 0
	for tag, value := range extract.Tagged(text) {
		found++

		if err := p.check("tag "+tag, value); err != nil {
			return domain.MT103Message{}, warnings, err
		}

		if !KnownTag(tag) {
			warnings = p.warn(warnings, fmt.Sprintf("unknown tag %s ignored", tag))
			continue
		}

		if w := tagTable[tag](&msg.Transfer, value); w != "" {
			warnings = p.warn(warnings, w)
		}
	}

	if found == 0 {
		warnings = p.warn(warnings, "no tagged fields found")
	}

	p.log.WithFields(logrus.Fields{
		"format":   domain.FormatMT103,
		"fields":   found,
		"warnings": len(warnings),
	}).Debug("MT103 message parsed")

	return msg, warnings, nil
}

func (p *Parser) check(field, value string) error {
	if p.checker == nil {
		return nil
	}
	return p.checker.CheckValue(field, value)
}

func (p *Parser) warn(warnings []domain.Warning, message string) []domain.Warning {
	p.log.WithField("format", domain.FormatMT103).Warn(message)
	return append(warnings, domain.Warning{Message: message})
}

// normalize unifies line endings and, when the message is wrapped in SWIFT
// blocks, keeps only the text block {4: ... -}.
func normalize(content string) string {
	text := strings.ReplaceAll(content, "\r\n", "\n")

	start := strings.Index(text, "{4:")
	if start < 0 {
		return text
	}
	text = text[start+len("{4:"):]
	if end := strings.Index(text, "\n-}"); end >= 0 {
		text = text[:end]
	} else if end := strings.Index(text, "-}"); end >= 0 {
		text = text[:end]
	}
	return text
}
