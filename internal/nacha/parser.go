// Package nacha parses fixed-width NACHA ACH files into a PaymentBatch.
// Parsing is best effort: malformed records are skipped with a warning and
// only an empty file or a rejected value is fatal.
package nacha

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/extract"
	"github.com/tirasundara/payment-converter/pkg/fileutil"
)

// ValueChecker screens an extracted value before it reaches the model
type ValueChecker interface {
	CheckValue(field, value string) error
}

type recordHandler struct {
	label  string
	handle func(s *parseState, lineNo int, fields map[string]string) error
}

var handlers = map[byte]recordHandler{
	TypeFileHeader:   {"file header", handleFileHeader},
	TypeBatchHeader:  {"batch header", handleBatchHeader},
	TypeEntryDetail:  {"entry detail", handleEntryDetail},
	TypeAddenda:      {"addenda", handleAddenda},
	TypeBatchControl: {"batch control", handleBatchControl},
	TypeFileControl:  {"file control", handleFileControl},
}

// Parser turns NACHA records into a domain.PaymentBatch
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

// Parse reads records from lines in order. progress, when set, is told once
// about each record type encountered.
func (p *Parser) Parse(lines []string, progress domain.ProgressFunc) (domain.PaymentBatch, []domain.Warning, error) {
	s := p.newState(progress)
	for i, line := range lines {
		if err := s.handleLine(i+1, line); err != nil {
			return domain.PaymentBatch{}, s.warnings, err
		}
	}
	return s.finish()
}

// ParseReader is Parse over a stream, one line at a time.
func (p *Parser) ParseReader(rd io.Reader, progress domain.ProgressFunc) (domain.PaymentBatch, []domain.Warning, error) {
	s := p.newState(progress)
	if err := fileutil.ProcessLines(rd, 0, s.handleLine); err != nil {
		return domain.PaymentBatch{}, s.warnings, fmt.Errorf("reading NACHA records: %w", err)
	}
	return s.finish()
}

func (p *Parser) newState(progress domain.ProgressFunc) *parseState {
	return &parseState{
		parser:   p,
		progress: progress,
		seen:     make(map[byte]bool),
	}
}

type parseState struct {
	parser   *Parser
	progress domain.ProgressFunc
	batch    domain.PaymentBatch
	warnings []domain.Warning
	seen     map[byte]bool
	records  int
}

func (s *parseState) handleLine(lineNo int, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	if len(line) < RecordLength {
		s.warn(lineNo, fmt.Sprintf("record is %d characters, expected %d; skipped", len(line), RecordLength))
		return nil
	}

	recordType := line[0]
	h, ok := handlers[recordType]
	if !ok {
		s.warn(lineNo, fmt.Sprintf("unknown record type %q; skipped", recordType))
		return nil
	}

	if recordType == TypeFileControl && isBlockFiller(line) {
		return nil
	}

	if !s.seen[recordType] {
		s.seen[recordType] = true
		if s.progress != nil {
			s.progress("Processing " + h.label + " record")
		}
	}

	fields := make(map[string]string, len(Layouts[recordType]))
	for _, f := range Layouts[recordType] {
		value, _ := extract.Fixed(line, f.Start, f.End)
		if s.parser.checker != nil {
			if err := s.parser.checker.CheckValue(f.Name, value); err != nil {
				return err
			}
		}
		fields[f.Name] = value
	}

	s.records++
	return h.handle(s, lineNo, fields)
}

func (s *parseState) finish() (domain.PaymentBatch, []domain.Warning, error) {
	if s.records == 0 {
		return domain.PaymentBatch{}, s.warnings, &domain.ParseError{Format: string(domain.FormatNACHA), Err: domain.ErrNoRecords}
	}

	s.parser.log.WithFields(logrus.Fields{
		"format":       domain.FormatNACHA,
		"records":      s.records,
		"entries":      len(s.batch.Transfers),
		"addenda":      s.batch.AddendaCount,
		"destination":  s.batch.FileHeader.ImmediateDestination,
		"origin":       s.batch.FileHeader.ImmediateOrigin,
		"batch_count":  s.batch.FileControl.BatchCount,
		"warnings":     len(s.warnings),
		"company_name": s.batch.BatchHeader.CompanyName,
	}).Debug("NACHA file parsed")

	return s.batch, s.warnings, nil
}

func (s *parseState) warn(lineNo int, message string) {
	s.parser.log.WithFields(logrus.Fields{
		"format": domain.FormatNACHA,
		"line":   lineNo,
	}).Warn(message)
	s.warnings = append(s.warnings, domain.Warning{Line: lineNo, Message: message})
}

// isBlockFiller reports whether line is all nines, the padding that fills
// the last block of a file.
func isBlockFiller(line string) bool {
	return strings.Trim(line, "9") == ""
}

func handleFileHeader(s *parseState, _ int, f map[string]string) error {
	s.batch.FileHeader = domain.FileHeader{
		ImmediateDestination: f[fImmediateDestination],
		ImmediateOrigin:      f[fImmediateOrigin],
		CreationDate:         f[fCreationDate],
		CreationTime:         f[fCreationTime],
	}
	return nil
}

func handleBatchHeader(s *parseState, lineNo int, f map[string]string) error {
	s.batch.BatchCount++
	if s.batch.BatchCount > 1 {
		s.warn(lineNo, "additional batch header; its values replace the previous batch header")
	}

	s.batch.BatchHeader = domain.BatchHeader{
		ServiceClassCode:       f[fServiceClassCode],
		CompanyName:            f[fCompanyName],
		CompanyIdentification:  f[fCompanyID],
		StandardEntryClassCode: f[fSECCode],
		EntryDescription:       f[fEntryDescription],
		EffectiveEntryDate:     f[fEffectiveDate],
		OriginatingDFI:         f[fOriginatingDFI],
	}
	return nil
}

func handleEntryDetail(s *parseState, lineNo int, f map[string]string) error {
	header := s.batch.BatchHeader
	ct := domain.CreditTransfer{
		Reference:        f[fTraceNumber],
		ValueDate:        header.EffectiveEntryDate,
		DebtorName:       header.CompanyName,
		DebtorAccount:    header.OriginatingDFI,
		CreditorName:     f[fIndividualName],
		CreditorAccount:  f[fAccountNumber],
		TransactionCode:  f[fTransactionCode],
		ReceivingDFI:     f[fReceivingDFI],
		TraceNumber:      f[fTraceNumber],
		AddendaIndicator: f[fAddendaIndicator],
	}

	amount, err := domain.CentsToAmount(f[fAmount])
	if err != nil {
		s.warn(lineNo, fmt.Sprintf("entry amount %q is not numeric; left empty", f[fAmount]))
	} else {
		ct.Amount = amount
	}

	s.batch.AddTransfer(ct)
	return nil
}

func handleAddenda(s *parseState, lineNo int, f map[string]string) error {
	last := s.batch.LastTransfer()
	if last == nil {
		s.warn(lineNo, "addenda record without a preceding entry detail; dropped")
		return nil
	}

	last.AppendRemittance(f[fPaymentInfo])
	s.batch.AddendaCount++
	return nil
}

func handleBatchControl(s *parseState, _ int, f map[string]string) error {
	s.batch.BatchControl = domain.BatchControl{
		EntryAddendaCount: f[fEntryAddendaCount],
		EntryHash:         f[fEntryHash],
		TotalDebitAmount:  f[fTotalDebit],
		TotalCreditAmount: f[fTotalCredit],
	}
	return nil
}

func handleFileControl(s *parseState, _ int, f map[string]string) error {
	s.batch.FileControl = domain.FileControl{
		BatchCount:        f[fBatchCount],
		BlockCount:        f[fBlockCount],
		EntryAddendaCount: f[fFileEntryAddendaCount],
		EntryHash:         f[fFileEntryHash],
		TotalDebitAmount:  f[fFileTotalDebit],
		TotalCreditAmount: f[fFileTotalCredit],
	}
	return nil
}
