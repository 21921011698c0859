package domain

import "github.com/shopspring/decimal"

// FileHeader holds the NACHA type 1 record fields
type FileHeader struct {
	ImmediateDestination string
	ImmediateOrigin      string
	CreationDate         string
	CreationTime         string
}

// BatchHeader holds the NACHA type 5 record fields
type BatchHeader struct {
	ServiceClassCode       string
	CompanyName            string
	CompanyIdentification  string
	StandardEntryClassCode string
	EntryDescription       string
	EffectiveEntryDate     string
	OriginatingDFI         string
}

// BatchControl holds the NACHA type 8 record fields. The values are kept as
// found in the file and are never used as rendered totals.
type BatchControl struct {
	EntryAddendaCount string
	EntryHash         string
	TotalDebitAmount  string
	TotalCreditAmount string
}

// FileControl holds the NACHA type 9 record fields. Its totals cover every
// batch in the file.
type FileControl struct {
	BatchCount        string
	BlockCount        string
	EntryAddendaCount string
	EntryHash         string
	TotalDebitAmount  string
	TotalCreditAmount string
}

// PaymentBatch is the NACHA aggregate: transfers in file order plus the
// header and control metadata around them.
type PaymentBatch struct {
	FileHeader   FileHeader
	BatchHeader  BatchHeader
	BatchControl BatchControl
	FileControl  FileControl
	Transfers    []CreditTransfer

	// AddendaCount is the number of type 7 records attributed to an entry
	AddendaCount int

	// BatchCount is the number of type 5 records seen. When it is above one,
	// BatchHeader and BatchControl hold the last batch only.
	BatchCount int
}

// AddTransfer appends ct in file order.
func (b *PaymentBatch) AddTransfer(ct CreditTransfer) {
	b.Transfers = append(b.Transfers, ct)
}

// LastTransfer returns the most recently added transfer, or nil. The pointer
// is only valid until the next AddTransfer.
func (b *PaymentBatch) LastTransfer() *CreditTransfer {
	if len(b.Transfers) == 0 {
		return nil
	}
	return &b.Transfers[len(b.Transfers)-1]
}

// TotalAmount sums the amounts of all transfers. Amounts that do not parse
// as decimals contribute zero.
func (b PaymentBatch) TotalAmount() decimal.Decimal {
	return SumAmounts(b.Transfers)
}

// SumAmounts adds up the Amount of every transfer that parses as a decimal.
func SumAmounts(transfers []CreditTransfer) decimal.Decimal {
	total := decimal.Zero
	for _, ct := range transfers {
		amount, err := decimal.NewFromString(ct.Amount)
		if err != nil {
			continue
		}
		total = total.Add(amount)
	}
	return total
}
