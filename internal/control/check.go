package control

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/payment-converter/internal/domain"
)

// entryHashModulus keeps the rightmost ten digits of the routing number sum
var entryHashModulus = decimal.New(1, 10)

// Totals is one set of declared control values, from a batch control or the
// file control record.
type Totals struct {
	Source            string
	EntryAddendaCount string
	EntryHash         string
	TotalDebitAmount  string
	TotalCreditAmount string
}

// Mismatch describes a declared control value that disagrees with the
// value computed from the entries.
type Mismatch struct {
	Check    string
	Source   string
	Declared string
	Computed string
}

func (m Mismatch) String() string {
	return m.Source + " " + m.Check + " declares " + m.Declared + ", entries give " + m.Computed
}

// Check compares one control value against the parsed entries
type Check interface {
	Name() string
	Verify(batch domain.PaymentBatch, totals Totals) (Mismatch, bool)
}

// EntryCountCheck compares the entry/addenda count
type EntryCountCheck struct{}

// NewEntryCountCheck creates a new EntryCountCheck
func NewEntryCountCheck() *EntryCountCheck {
	return &EntryCountCheck{}
}

func (c *EntryCountCheck) Name() string { return "entry/addenda count" }

// Verify implements the Check interface
func (c *EntryCountCheck) Verify(batch domain.PaymentBatch, totals Totals) (Mismatch, bool) {
	computed := decimal.NewFromInt(int64(len(batch.Transfers) + batch.AddendaCount))
	return compare(c.Name(), totals.Source, totals.EntryAddendaCount, computed)
}

// EntryHashCheck compares the entry hash, the sum of the 8-digit receiving
// DFI identifications truncated to ten digits.
type EntryHashCheck struct{}

// NewEntryHashCheck creates a new EntryHashCheck
func NewEntryHashCheck() *EntryHashCheck {
	return &EntryHashCheck{}
}

func (c *EntryHashCheck) Name() string { return "entry hash" }

// Verify implements the Check interface
func (c *EntryHashCheck) Verify(batch domain.PaymentBatch, totals Totals) (Mismatch, bool) {
	sum := decimal.Zero
	for _, ct := range batch.Transfers {
		rdfi, err := decimal.NewFromString(ct.ReceivingDFI)
		if err != nil {
			continue
		}
		sum = sum.Add(rdfi)
	}
	return compare(c.Name(), totals.Source, totals.EntryHash, sum.Mod(entryHashModulus))
}

// AmountTotalCheck compares the total debit or credit amount, in cents
type AmountTotalCheck struct {
	Credit bool
}

// NewCreditTotalCheck creates an AmountTotalCheck over credit entries
func NewCreditTotalCheck() *AmountTotalCheck {
	return &AmountTotalCheck{Credit: true}
}

// NewDebitTotalCheck creates an AmountTotalCheck over debit entries
func NewDebitTotalCheck() *AmountTotalCheck {
	return &AmountTotalCheck{Credit: false}
}

func (c *AmountTotalCheck) Name() string {
	if c.Credit {
		return "total credit amount"
	}
	return "total debit amount"
}

// Verify implements the Check interface
func (c *AmountTotalCheck) Verify(batch domain.PaymentBatch, totals Totals) (Mismatch, bool) {
	var selected []domain.CreditTransfer
	for _, ct := range batch.Transfers {
		if c.Credit && IsCredit(ct.TransactionCode) || !c.Credit && IsDebit(ct.TransactionCode) {
			selected = append(selected, ct)
		}
	}

	declared := totals.TotalDebitAmount
	if c.Credit {
		declared = totals.TotalCreditAmount
	}

	cents := domain.SumAmounts(selected).Shift(2)
	return compare(c.Name(), totals.Source, declared, cents)
}

// IsCredit reports whether an ACH transaction code moves money to the
// receiver (x1 to x4).
func IsCredit(code string) bool {
	return len(code) == 2 && code[1] >= '1' && code[1] <= '4'
}

// IsDebit reports whether an ACH transaction code pulls money from the
// receiver (x6 to x9).
func IsDebit(code string) bool {
	return len(code) == 2 && code[1] >= '6' && code[1] <= '9'
}

// compare skips an absent declared value. One that is not a number is
// reported as a mismatch.
func compare(check, source, declared string, computed decimal.Decimal) (Mismatch, bool) {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return Mismatch{}, false
	}

	if _, err := strconv.ParseUint(declared, 10, 64); err == nil {
		if d, err := decimal.NewFromString(declared); err == nil && d.Equal(computed) {
			return Mismatch{}, false
		}
	}

	return Mismatch{
		Check:    check,
		Source:   source,
		Declared: declared,
		Computed: computed.String(),
	}, true
}
