package pain001

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/security"
)

// Namespace is the pain.001.001.03 document namespace
const Namespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"

// Placeholders rendered for absent source values
const (
	UnknownID          = "UNKNOWN"
	UnknownDebtor      = "Unknown Debtor"
	UnknownCreditor    = "Unknown Creditor"
	DefaultCurrency    = "USD"
	DefaultInitgPtyNm  = "ConvertISO20022"
	zeroAmount         = "0.00"
	paymentMethod      = "TRF"
	creationTimeLayout = "2006-01-02T15:04:05"
	maxMessageIDLength = 35
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Renderer produces complete pain.001.001.03 documents. Every placeholder
// for an absent value is applied here, never in the parsers.
type Renderer struct {
	now             func() time.Time
	newID           func() string
	initiatingParty string
	policy          security.InjectionPolicy
	audit           *security.AuditLogger
	indent          string
}

// NewRenderer creates a Renderer using the wall clock and random UUIDs.
func NewRenderer(policy security.InjectionPolicy, audit *security.AuditLogger) *Renderer {
	return &Renderer{
		now:             time.Now,
		newID:           uuid.NewString,
		initiatingParty: DefaultInitgPtyNm,
		policy:          policy,
		audit:           audit,
		indent:          "  ",
	}
}

// SetClock replaces the time source used for CreDtTm and date fallbacks.
func (r *Renderer) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// SetIDGenerator replaces the message id source.
func (r *Renderer) SetIDGenerator(newID func() string) {
	if newID != nil {
		r.newID = newID
	}
}

// SetInitiatingParty sets GrpHdr/InitgPty/Nm for MT103 documents.
func (r *Renderer) SetInitiatingParty(name string) {
	if strings.TrimSpace(name) != "" {
		r.initiatingParty = name
	}
}

// SetIndent sets the per-level indentation; empty writes a single line.
func (r *Renderer) SetIndent(indent string) {
	r.indent = indent
}

// document is the format-independent view a Renderer writes
type document struct {
	msgPrefix     string
	initgPtyName  string
	initgPtyID    string
	paymentInfoID string
	executionDate string
	debtorName    string
	debtorAccount string
	transfers     []domain.CreditTransfer
	ctrlSum       string
}

// RenderMT103 renders a single-transfer document.
func (r *Renderer) RenderMT103(msg domain.MT103Message) ([]byte, error) {
	ct := msg.Transfer
	doc := document{
		msgPrefix:     "MSG",
		initgPtyName:  r.initiatingParty,
		paymentInfoID: ct.Reference,
		executionDate: ct.ValueDate,
		debtorName:    ct.DebtorName,
		debtorAccount: ct.DebtorAccount,
		transfers:     []domain.CreditTransfer{ct},
	}

	// an amount that is not a decimal, such as the SWIFT comma form, is
	// carried into CtrlSum as found
	if _, err := decimal.NewFromString(ct.Amount); err != nil && ct.Amount != "" {
		doc.ctrlSum = ct.Amount
	}
	return r.render(doc)
}

// RenderBatch renders one PmtInf holding every transfer of batch.
func (r *Renderer) RenderBatch(batch domain.PaymentBatch) ([]byte, error) {
	header := batch.BatchHeader
	initgPtyName := header.CompanyName
	if initgPtyName == "" {
		initgPtyName = r.initiatingParty
	}

	doc := document{
		msgPrefix:     "NACHA",
		initgPtyName:  initgPtyName,
		initgPtyID:    orDefault(header.CompanyIdentification, UnknownID),
		paymentInfoID: header.CompanyIdentification,
		executionDate: header.EffectiveEntryDate,
		debtorName:    header.CompanyName,
		debtorAccount: header.OriginatingDFI,
		transfers:     batch.Transfers,
	}
	return r.render(doc)
}

func (r *Renderer) render(doc document) ([]byte, error) {
	now := r.now()
	if doc.ctrlSum == "" {
		doc.ctrlSum = domain.SumAmounts(doc.transfers).StringFixed(2)
	}
	count := strconv.Itoa(len(doc.transfers))

	var buf bytes.Buffer
	w := &writer{b: NewBuilder(&buf, r.policy, r.audit)}
	defer w.b.Close()
	if r.indent != "" {
		w.b.Indent("", r.indent)
	}

	w.do(w.b.StartDocument)
	w.start("Document")
	w.attr("xmlns", Namespace)
	w.start("CstmrCdtTrfInitn")

	w.start("GrpHdr")
	w.elem("MsgId", r.messageID(doc.msgPrefix))
	w.elem("CreDtTm", now.Format(creationTimeLayout))
	w.elem("NbOfTxs", count)
	w.elem("CtrlSum", doc.ctrlSum)
	w.start("InitgPty")
	w.elem("Nm", doc.initgPtyName)
	if doc.initgPtyID != "" {
		w.start("Id")
		w.start("OrgId")
		w.start("Othr")
		w.elem("Id", doc.initgPtyID)
		w.end() // Othr
		w.end() // OrgId
		w.end() // Id
	}
	w.end() // InitgPty
	w.end() // GrpHdr

	w.start("PmtInf")
	w.elem("PmtInfId", orDefault(doc.paymentInfoID, UnknownID))
	w.elem("PmtMtd", paymentMethod)
	w.elem("NbOfTxs", count)
	w.elem("CtrlSum", doc.ctrlSum)
	w.elem("ReqdExctnDt", domain.FormatDate(doc.executionDate, now))
	w.start("Dbtr")
	w.elem("Nm", orDefault(doc.debtorName, UnknownDebtor))
	w.end()
	w.account("DbtrAcct", doc.debtorAccount)

	for _, ct := range doc.transfers {
		w.start("CdtTrfTxInf")
		w.start("PmtId")
		w.elem("EndToEndId", orDefault(ct.Reference, UnknownID))
		w.end()
		w.start("Amt")
		w.start("InstdAmt")
		w.attr("Ccy", currency(ct.Currency))
		w.text(orDefault(ct.Amount, zeroAmount))
		w.end() // InstdAmt
		w.end() // Amt
		w.start("Cdtr")
		w.elem("Nm", orDefault(ct.CreditorName, UnknownCreditor))
		w.end()
		w.account("CdtrAcct", ct.CreditorAccount)
		if ct.HasRemittance() {
			w.start("RmtInf")
			w.elem("Ustrd", strings.TrimSpace(ct.Remittance))
			w.end()
		}
		w.end() // CdtTrfTxInf
	}

	w.end() // PmtInf
	w.end() // CstmrCdtTrfInitn
	w.end() // Document
	w.do(w.b.EndDocument)

	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) messageID(prefix string) string {
	id := prefix + strings.ToUpper(strings.ReplaceAll(r.newID(), "-", ""))
	if len(id) > maxMessageIDLength {
		id = id[:maxMessageIDLength]
	}
	return id
}

// writer stops at the first Builder error so the layout code reads straight
// through.
type writer struct {
	b   *Builder
	err error
}

func (w *writer) do(fn func() error) {
	if w.err == nil {
		w.err = fn()
	}
}

func (w *writer) start(name string) { w.do(func() error { return w.b.StartElement(name) }) }
func (w *writer) end()              { w.do(w.b.EndElement) }
func (w *writer) text(v string)     { w.do(func() error { return w.b.Text(v) }) }
func (w *writer) attr(n, v string)  { w.do(func() error { return w.b.Attr(n, v) }) }
func (w *writer) elem(n, v string)  { w.do(func() error { return w.b.Element(n, v) }) }

// account writes <name><Id><Othr><Id>id</Id></Othr></Id></name>
func (w *writer) account(name, id string) {
	w.start(name)
	w.start("Id")
	w.start("Othr")
	w.elem("Id", orDefault(id, UnknownID))
	w.end()
	w.end()
	w.end()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func currency(code string) string {
	if currencyPattern.MatchString(code) {
		return code
	}
	return DefaultCurrency
}
