// Package pain001 writes ISO 20022 pain.001.001.03 customer credit transfer
// initiation documents. Builder is a validating streaming XML writer;
// Renderer lays the canonical model out in the fixed document shape.
package pain001

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/security"
)

// MaxValueLength caps the characters of a single text or attribute value
const MaxValueLength = 10000

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

type builderState int

const (
	stateNotStarted builderState = iota
	stateDocumentOpen
	stateDocumentEnded
)

func (s builderState) String() string {
	switch s {
	case stateNotStarted:
		return "not started"
	case stateDocumentOpen:
		return "open"
	}
	return "ended"
}

// Builder writes one XML document token by token. Names and values are
// validated before anything of the token reaches the writer. A Builder is
// not safe for concurrent use.
type Builder struct {
	w       io.Writer
	enc     *xml.Encoder
	state   builderState
	stack   []string
	pending *xml.StartElement
	hasRoot bool
	closed  bool

	policy security.InjectionPolicy
	audit  *security.AuditLogger
}

// NewBuilder creates a Builder writing to w. A nil policy skips the
// injection scan; name, control character and length checks always apply.
func NewBuilder(w io.Writer, policy security.InjectionPolicy, audit *security.AuditLogger) *Builder {
	return &Builder{
		w:      w,
		enc:    xml.NewEncoder(w),
		policy: policy,
		audit:  audit,
	}
}

// Indent sets the indentation used for nested elements.
func (b *Builder) Indent(prefix, indent string) {
	b.enc.Indent(prefix, indent)
}

// StartDocument writes the XML 1.0 declaration.
func (b *Builder) StartDocument() error {
	if b.state != stateNotStarted {
		return b.usage("StartDocument", "document already "+b.state.String())
	}

	if err := b.enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return fmt.Errorf("writing xml declaration: %w", err)
	}
	b.state = stateDocumentOpen
	return nil
}

// StartElement opens an element. Its start tag is held back so attributes
// can still be added.
func (b *Builder) StartElement(name string) error {
	if b.state != stateDocumentOpen {
		return b.usage("StartElement", "document is "+b.state.String())
	}
	if len(b.stack) == 0 && b.hasRoot {
		return b.usage("StartElement", "document already has a root element")
	}
	if err := b.checkName(name); err != nil {
		return err
	}

	if err := b.flush(); err != nil {
		return err
	}

	b.pending = &xml.StartElement{Name: xml.Name{Local: name}}
	b.stack = append(b.stack, name)
	b.hasRoot = true
	return nil
}

// Attr adds an attribute to the element just started.
func (b *Builder) Attr(name, value string) error {
	if b.pending == nil {
		return b.usage("Attr", "no start tag is open for attributes")
	}
	if err := b.checkName(name); err != nil {
		return err
	}
	if err := b.checkValue(name, value); err != nil {
		return err
	}

	b.pending.Attr = append(b.pending.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return nil
}

// Text writes escaped character data inside the current element.
func (b *Builder) Text(value string) error {
	if b.state != stateDocumentOpen || len(b.stack) == 0 {
		return b.usage("Text", "no element is open")
	}
	if err := b.checkValue(b.stack[len(b.stack)-1], value); err != nil {
		return err
	}

	if err := b.flush(); err != nil {
		return err
	}
	if err := b.enc.EncodeToken(xml.CharData(value)); err != nil {
		return fmt.Errorf("writing text of %s: %w", b.stack[len(b.stack)-1], err)
	}
	return nil
}

// EndElement closes the innermost open element.
func (b *Builder) EndElement() error {
	if b.state != stateDocumentOpen || len(b.stack) == 0 {
		return b.usage("EndElement", "no element is open")
	}

	if err := b.flush(); err != nil {
		return err
	}

	name := b.stack[len(b.stack)-1]
	if err := b.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// Element writes <name>value</name>.
func (b *Builder) Element(name, value string) error {
	if err := b.StartElement(name); err != nil {
		return err
	}
	if err := b.Text(value); err != nil {
		return err
	}
	return b.EndElement()
}

// EndDocument checks that every element is closed and flushes the output.
func (b *Builder) EndDocument() error {
	switch b.state {
	case stateNotStarted:
		return b.usage("EndDocument", "document was never started")
	case stateDocumentEnded:
		return b.usage("EndDocument", "document already ended")
	}
	if len(b.stack) > 0 {
		return b.usage("EndDocument", "unclosed element "+b.stack[len(b.stack)-1])
	}

	if err := b.enc.Flush(); err != nil {
		return fmt.Errorf("flushing xml: %w", err)
	}
	b.state = stateDocumentEnded
	return nil
}

// Close releases the underlying writer if it is an io.Closer. Only the first
// call has any effect.
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.enc.Close(); err != nil && b.state == stateDocumentEnded {
		return fmt.Errorf("closing xml encoder: %w", err)
	}
	if c, ok := b.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Builder) flush() error {
	if b.pending == nil {
		return nil
	}
	start := *b.pending
	b.pending = nil
	if err := b.enc.EncodeToken(start); err != nil {
		return fmt.Errorf("opening %s: %w", start.Name.Local, err)
	}
	return nil
}

func (b *Builder) usage(op, msg string) error {
	return &domain.UsageError{Op: op, Msg: msg}
}

func (b *Builder) checkName(name string) error {
	var err *domain.SecurityError
	switch {
	case strings.EqualFold(name, "xml"):
		err = domain.NewSecurityError("Invalid XML name", "reserved name "+name)
	case strings.Contains(name, ":"):
		err = domain.NewSecurityError("Invalid XML name", "prefixed name "+name)
	case !namePattern.MatchString(name):
		err = domain.NewSecurityError("Invalid XML name", "malformed name "+name)
	default:
		return nil
	}
	b.audit.Violation("xml name rejected", err)
	return err
}

func (b *Builder) checkValue(field, value string) error {
	if n := utf8.RuneCountInString(value); n > MaxValueLength {
		err := domain.NewSecurityError("XML value too long", fmt.Sprintf("%s has %d characters", field, n))
		b.audit.Violation("xml value rejected", err)
		return err
	}

	if i := strings.IndexFunc(value, isForbiddenControl); i >= 0 {
		err := domain.NewSecurityError("Invalid characters in XML value",
			fmt.Sprintf("control character 0x%02X in %s", value[i], field))
		b.audit.Violation("xml value rejected", err)
		return err
	}

	return security.CheckInjection(b.policy, b.audit, field, value)
}

// isForbiddenControl matches C0 controls other than tab, LF and CR, and DEL.
func isForbiddenControl(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20 || r == 0x7f:
		return true
	}
	return false
}
