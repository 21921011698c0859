package domain

import "strings"

// CreditTransfer is one movement of value, filled in field by field as a parser
// recognises source fields. An empty string means the source did not carry the
// value; placeholders are applied only when the transfer is rendered.
type CreditTransfer struct {
	Reference       string
	ValueDate       string // YYMMDD as found in the source
	Currency        string
	Amount          string // major units, e.g. "123.45"
	DebtorName      string
	DebtorAccount   string
	CreditorName    string
	CreditorAccount string
	Remittance      string

	// NACHA entry detail fields kept for audit
	TransactionCode  string
	ReceivingDFI     string
	TraceNumber      string
	AddendaIndicator string

	// MT103 fields outside the pain.001 mapping
	BankOperationCode string
	ChargeDetails     string
}

// AppendRemittance joins fragment onto the remittance text, space separated.
func (ct *CreditTransfer) AppendRemittance(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	if ct.Remittance == "" {
		ct.Remittance = fragment
		return
	}
	ct.Remittance = ct.Remittance + " " + fragment
}

// HasRemittance reports whether there is non-blank remittance text.
func (ct CreditTransfer) HasRemittance() bool {
	return strings.TrimSpace(ct.Remittance) != ""
}
