package nacha

import "fmt"

// RecordLength is the fixed width of every NACHA record
const RecordLength = 94

// Record type codes, the first character of a record
const (
	TypeFileHeader   byte = '1'
	TypeBatchHeader  byte = '5'
	TypeEntryDetail  byte = '6'
	TypeAddenda      byte = '7'
	TypeBatchControl byte = '8'
	TypeFileControl  byte = '9'
)

// Field is a named [Start,End) column range within a record
type Field struct {
	Name  string
	Start int
	End   int
}

// Field names used by the record handlers
const (
	fImmediateDestination = "immediate_destination"
	fImmediateOrigin      = "immediate_origin"
	fCreationDate         = "file_creation_date"
	fCreationTime         = "file_creation_time"

	fServiceClassCode = "service_class_code"
	fCompanyName      = "company_name"
	fCompanyID        = "company_identification"
	fSECCode          = "standard_entry_class_code"
	fEntryDescription = "company_entry_description"
	fEffectiveDate    = "effective_entry_date"
	fOriginatingDFI   = "originating_dfi"

	fTransactionCode  = "transaction_code"
	fReceivingDFI     = "receiving_dfi"
	fCheckDigit       = "check_digit"
	fAccountNumber    = "dfi_account_number"
	fAmount           = "amount"
	fIndividualID     = "individual_id"
	fIndividualName   = "individual_name"
	fDiscretionary    = "discretionary_data"
	fAddendaIndicator = "addenda_indicator"
	fTraceNumber      = "trace_number"

	fPaymentInfo = "payment_related_information"

	fEntryAddendaCount = "entry_addenda_count"
	fEntryHash         = "entry_hash"
	fTotalDebit        = "total_debit_amount"
	fTotalCredit       = "total_credit_amount"

	fBatchCount            = "batch_count"
	fBlockCount            = "block_count"
	fFileEntryAddendaCount = "file_entry_addenda_count"
	fFileEntryHash         = "file_entry_hash"
	fFileTotalDebit        = "file_total_debit_amount"
	fFileTotalCredit       = "file_total_credit_amount"
)

// Layouts lists the column ranges read from each record type.
var Layouts = map[byte][]Field{
	TypeFileHeader: {
		{fImmediateDestination, 3, 13},
		{fImmediateOrigin, 13, 23},
		{fCreationDate, 23, 29},
		{fCreationTime, 29, 33},
	},
	TypeBatchHeader: {
		{fServiceClassCode, 1, 4},
		{fCompanyName, 4, 20},
		{fCompanyID, 40, 50},
		{fSECCode, 50, 53},
		{fEntryDescription, 53, 63},
		{fEffectiveDate, 69, 75},
		{fOriginatingDFI, 79, 87},
	},
	TypeEntryDetail: {
		{fTransactionCode, 1, 3},
		{fReceivingDFI, 3, 11},
		{fCheckDigit, 11, 12},
		{fAccountNumber, 12, 29},
		{fAmount, 29, 39},
		{fIndividualID, 39, 54},
		{fIndividualName, 54, 76},
		{fDiscretionary, 76, 78},
		{fAddendaIndicator, 78, 79},
		{fTraceNumber, 79, 94},
	},
	TypeAddenda: {
		{fPaymentInfo, 3, 83},
	},
	TypeBatchControl: {
		{fEntryAddendaCount, 4, 10},
		{fEntryHash, 10, 20},
		{fTotalDebit, 20, 32},
		{fTotalCredit, 32, 44},
	},
	TypeFileControl: {
		{fBatchCount, 1, 7},
		{fBlockCount, 7, 13},
		{fFileEntryAddendaCount, 13, 21},
		{fFileEntryHash, 21, 31},
		{fFileTotalDebit, 31, 43},
		{fFileTotalCredit, 43, 55},
	},
}

func init() {
	if err := checkLayouts(Layouts); err != nil {
		panic(err)
	}
}

// checkLayouts verifies that every range fits a record, does not touch the
// type column and does not overlap its neighbour.
func checkLayouts(layouts map[byte][]Field) error {
	for recordType, fields := range layouts {
		prevEnd := 1
		for _, f := range fields {
			if f.Start < prevEnd || f.End <= f.Start || f.End > RecordLength {
				return fmt.Errorf("invalid layout for record type %c: field %s [%d,%d)", recordType, f.Name, f.Start, f.End)
			}
			prevEnd = f.End
		}
	}
	return nil
}
