package service_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tirasundara/payment-converter/internal/control"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/mt103"
	"github.com/tirasundara/payment-converter/internal/nacha"
	"github.com/tirasundara/payment-converter/internal/pain001"
	"github.com/tirasundara/payment-converter/internal/repository"
	"github.com/tirasundara/payment-converter/internal/security"
	"github.com/tirasundara/payment-converter/internal/service"
)

const scenarioA = `:20:REF1
:32A:250615USD000001500,00
:50K:ACME CORP
:59:JOHN DOE
:70:INVOICE 123
`

var fixedNow = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

func record(recordType byte, parts map[int]string) string {
	b := []byte(strings.Repeat(" ", nacha.RecordLength))
	b[0] = recordType
	for start, v := range parts {
		copy(b[start:], v)
	}
	return string(b)
}

func scenarioB(creditTotal string) string {
	lines := []string{
		record('1', map[int]string{1: "01", 3: " 091000019", 13: "1234567890", 23: "250615", 29: "1200"}),
		record('5', map[int]string{1: "220", 4: "WIDGETCO", 40: "1234567890", 50: "PPD", 53: "PAYROLL", 69: "250616", 79: "09100001"}),
		record('6', map[int]string{1: "22", 3: "12345678", 11: "9", 12: "111111111", 29: "0000010000", 54: "ALICE SMITH", 78: "0", 79: "091000010000001"}),
		record('6', map[int]string{1: "22", 3: "87654321", 11: "9", 12: "222222222", 29: "0000025000", 54: "BOB JONES", 78: "0", 79: "091000010000002"}),
		record('8', map[int]string{1: "220", 4: "000002", 10: "0099999999", 20: "000000000000", 32: creditTotal}),
		record('9', map[int]string{1: "000001", 7: "000001"}),
	}
	return strings.Join(lines, "\n") + "\n"
}

type fixture struct {
	dir string
	svc *service.ConversionService
}

// recordingInput wraps a FileRepository and records which read path was used
type recordingInput struct {
	*repository.FileRepository
	calls []string
}

func (r *recordingInput) ReadText(path string) (string, error) {
	r.calls = append(r.calls, "ReadText")
	return r.FileRepository.ReadText(path)
}

func (r *recordingInput) ReadLines(path string) ([]string, error) {
	r.calls = append(r.calls, "ReadLines")
	return r.FileRepository.ReadLines(path)
}

func (r *recordingInput) Open(path string) (io.ReadCloser, error) {
	r.calls = append(r.calls, "Open")
	return r.FileRepository.Open(path)
}

func newFixture(t *testing.T, policy control.Policy) *fixture {
	t.Helper()
	return newFixtureWithInput(t, policy, nil)
}

func newFixtureWithInput(t *testing.T, policy control.Policy, input *recordingInput) *fixture {
	t.Helper()
	dir := t.TempDir()

	log := logrus.New()
	log.SetOutput(io.Discard)
	audit := security.NewAuditLogger(log)

	validator := security.NewValidator(security.DefaultLimits(), security.NewPathPolicy(dir), nil, audit)

	mtParser := mt103.NewParser(validator)
	mtParser.SetLogger(log)
	achParser := nacha.NewParser(validator)
	achParser.SetLogger(log)
	checker := control.NewChecker(policy)
	checker.SetLogger(log)

	renderer := pain001.NewRenderer(validator.InjectionPolicy(), audit)
	renderer.SetClock(func() time.Time { return fixedNow })

	repo := repository.NewFileRepository(true)
	var in domain.InputRepository = repo
	if input != nil {
		input.FileRepository = repo
		in = input
	}
	svc := service.NewConversionService(validator, in, repo, mtParser, achParser, checker, renderer, audit)
	svc.SetLogger(log)
	svc.SetClock(func() time.Time { return fixedNow })

	return &fixture{dir: dir, svc: svc}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func assertNoOutput(t *testing.T, path string) {
	t.Helper()
	if info, err := os.Stat(path); err == nil {
		t.Errorf("Expected no output file, found %d bytes", info.Size())
	}
}

func TestConvertFile_ScenarioA(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "message.mt103", scenarioA)

	var progress []string
	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
		InputPath:  input,
		Format:     "MT103",
		OutputPath: f.path("message.xml"),
	}, func(msg string) { progress = append(progress, msg) })

	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if result.RecordsProcessed != 1 {
		t.Errorf("Expected 1 record, got %d", result.RecordsProcessed)
	}
	if result.InputFormat != "MT103" || result.OutputFormat != "pain.001.001.03" {
		t.Errorf("Unexpected formats %s -> %s", result.InputFormat, result.OutputFormat)
	}
	if !result.Timestamp.Equal(fixedNow) {
		t.Errorf("Expected timestamp %s, got %s", fixedNow, result.Timestamp)
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.001.03">`,
		"<EndToEndId>REF1</EndToEndId>",
		`<InstdAmt Ccy="USD">000001500,00</InstdAmt>`,
		"<Nm>ACME CORP</Nm>",
		"<Nm>JOHN DOE</Nm>",
		"<Ustrd>INVOICE 123</Ustrd>",
		"<ReqdExctnDt>2025-06-15</ReqdExctnDt>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %s", want)
		}
	}

	if len(progress) == 0 || progress[0] != "Starting MT103 conversion" || progress[len(progress)-1] != "Conversion completed" {
		t.Errorf("Unexpected progress sequence %v", progress)
	}
}

func TestConvertFile_ScenarioB(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "payroll.ach", scenarioB("000000035000"))

	var progress []string
	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
		InputPath:  input,
		Format:     "NACHA",
		OutputPath: f.path("payroll.xml"),
	}, func(msg string) { progress = append(progress, msg) })

	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if result.RecordsProcessed != 2 {
		t.Errorf("Expected 2 records, got %d", result.RecordsProcessed)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}

	data, _ := os.ReadFile(result.OutputPath)
	out := string(data)
	if strings.Count(out, "<NbOfTxs>2</NbOfTxs>") != 2 {
		t.Errorf("Expected NbOfTxs 2 in GrpHdr and PmtInf")
	}
	if strings.Count(out, "<CtrlSum>350.00</CtrlSum>") != 2 {
		t.Errorf("Expected CtrlSum 350.00 in GrpHdr and PmtInf")
	}
	if strings.Count(out, "<CdtTrfTxInf>") != 2 {
		t.Errorf("Expected 2 CdtTrfTxInf blocks")
	}
	if !strings.Contains(out, "<Nm>WIDGETCO</Nm>") {
		t.Errorf("Expected debtor WIDGETCO")
	}

	found := false
	for _, p := range progress {
		if p == "Processing entry detail record" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected per-record-type progress, got %v", progress)
	}
}

func TestConvertFile_InjectionWritesNothing(t *testing.T) {
	payloads := []string{"<script>alert(1)</script>", "' OR '1'='1", "$(rm -rf /)"}

	for _, payload := range payloads {
		f := newFixture(t, control.PolicyWarn)
		input := f.write(t, "message.mt103", ":20:REF1\n:59:"+payload+"\n")
		output := f.path("message.xml")

		result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
			InputPath: input, Format: "MT103", OutputPath: output,
		}, nil)

		if result.Success {
			t.Errorf("Expected failure for %q", payload)
		}
		if !strings.Contains(result.ErrorMessage, "Invalid input detected") {
			t.Errorf("Expected security message, got %s", result.ErrorMessage)
		}
		assertNoOutput(t, output)
	}
}

func TestConvertFile_InjectionOutsideKnownTagsWritesNothing(t *testing.T) {
	contents := []string{
		":20:REF1\n:72:$(rm -rf /)\n:59:JOHN DOE\n",
		":20:REF1\n:33B:' OR '1'='1\n:59:JOHN DOE\n",
		"{1:F01BANKBEBBAXXX0000000000}{3:{108:<script>x</script>}}{4:\n:20:REF1\n:59:JOHN DOE\n-}",
	}

	for _, content := range contents {
		f := newFixture(t, control.PolicyWarn)
		input := f.write(t, "message.mt103", content)
		output := f.path("message.xml")

		result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
			InputPath: input, Format: "MT103", OutputPath: output,
		}, nil)

		if result.Success {
			t.Errorf("Expected failure for %q", content)
		}
		if !strings.Contains(result.ErrorMessage, "Invalid input detected") {
			t.Errorf("Expected security message, got %s", result.ErrorMessage)
		}
		assertNoOutput(t, output)
	}
}

func TestConvertFile_NACHAInjectionWritesNothing(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	content := strings.Replace(scenarioB("000000035000"), "BOB JONES  ", "$(rm -rf /)", 1)
	input := f.write(t, "payroll.ach", content)
	output := f.path("payroll.xml")

	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
		InputPath: input, Format: "NACHA", OutputPath: output,
	}, nil)

	if result.Success {
		t.Fatalf("Expected failure")
	}
	assertNoOutput(t, output)
}

func TestConvertFile_PathChecks(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "message.mt103", scenarioA)
	outside := filepath.Join(t.TempDir(), "out.xml")

	tests := []struct {
		name   string
		req    service.ConversionRequest
		reason string
	}{
		{"traversal input", service.ConversionRequest{InputPath: f.dir + "/../message.mt103", Format: "MT103", OutputPath: f.path("a.xml")}, "Path traversal detected"},
		{"traversal output", service.ConversionRequest{InputPath: input, Format: "MT103", OutputPath: f.dir + "/x/../../a.xml"}, "Path traversal detected"},
		{"outside output", service.ConversionRequest{InputPath: input, Format: "MT103", OutputPath: outside}, "outside allowed directories"},
		{"missing input", service.ConversionRequest{InputPath: f.path("missing.mt103"), Format: "MT103", OutputPath: f.path("b.xml")}, "does not exist"},
		{"same path", service.ConversionRequest{InputPath: input, Format: "MT103", OutputPath: input}, "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.svc.ConvertFile(context.Background(), tt.req, nil)
			if result.Success {
				t.Fatalf("Expected failure")
			}
			if !strings.Contains(result.ErrorMessage, tt.reason) {
				t.Errorf("Expected message to contain %q, got %q", tt.reason, result.ErrorMessage)
			}
			if strings.Contains(result.ErrorMessage, f.dir) {
				t.Errorf("Expected message not to leak paths, got %q", result.ErrorMessage)
			}
		})
	}

	assertNoOutput(t, outside)
	data, _ := os.ReadFile(input)
	if string(data) != scenarioA {
		t.Errorf("Expected input to be untouched")
	}
}

func TestConvertFile_UnsupportedFormat(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "message.mt940", scenarioA)
	output := f.path("out.xml")

	for _, format := range []string{"MT940", "mt103", ""} {
		result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{
			InputPath: input, Format: format, OutputPath: output,
		}, nil)
		if result.Success {
			t.Errorf("Expected failure for format %q", format)
		}
		if result.ErrorMessage != "Unsupported input format: "+format {
			t.Errorf("Unexpected message %q", result.ErrorMessage)
		}
	}
	assertNoOutput(t, output)
}

func TestConvertFile_Cancelled(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "message.mt103", scenarioA)
	output := f.path("out.xml")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.svc.ConvertFile(ctx, service.ConversionRequest{InputPath: input, Format: "MT103", OutputPath: output}, nil)
	if result.Success {
		t.Errorf("Expected cancelled conversion to fail")
	}
	assertNoOutput(t, output)
}

func TestConvertFile_EmptyMT103(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "empty.mt103", "  \n")
	output := f.path("out.xml")

	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{InputPath: input, Format: "MT103", OutputPath: output}, nil)
	if result.Success {
		t.Fatalf("Expected failure")
	}
	if !strings.HasPrefix(result.ErrorMessage, "MT103 conversion failed: ") || !strings.Contains(result.ErrorMessage, "content is empty") {
		t.Errorf("Unexpected message %q", result.ErrorMessage)
	}
	assertNoOutput(t, output)
}

func TestConvertFile_ControlTotals(t *testing.T) {
	content := scenarioB("000000036000")

	f := newFixture(t, control.PolicyWarn)
	input := f.write(t, "payroll.ach", content)
	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{InputPath: input, Format: "NACHA", OutputPath: f.path("warn.xml")}, nil)
	if !result.Success {
		t.Fatalf("Expected success under warn policy, got %s", result.ErrorMessage)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "total credit amount") {
		t.Errorf("Expected one credit total warning, got %v", result.Warnings)
	}

	f = newFixture(t, control.PolicyFail)
	input = f.write(t, "payroll.ach", content)
	output := f.path("fail.xml")
	result = f.svc.ConvertFile(context.Background(), service.ConversionRequest{InputPath: input, Format: "NACHA", OutputPath: output}, nil)
	if result.Success {
		t.Fatalf("Expected failure under fail policy")
	}
	if !strings.Contains(result.ErrorMessage, "control totals do not match") {
		t.Errorf("Unexpected message %q", result.ErrorMessage)
	}
	assertNoOutput(t, output)
}

func TestConvertFile_ShortNACHALine(t *testing.T) {
	f := newFixture(t, control.PolicyIgnore)
	lines := strings.Split(scenarioB("000000035000"), "\n")
	lines[3] = lines[3][:93]
	input := f.write(t, "payroll.ach", strings.Join(lines, "\n"))

	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{InputPath: input, Format: "NACHA", OutputPath: f.path("out.xml")}, nil)
	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if result.RecordsProcessed != 1 {
		t.Errorf("Expected 1 record, got %d", result.RecordsProcessed)
	}
	if len(result.Warnings) != 1 || !strings.HasPrefix(result.Warnings[0], "line 4:") {
		t.Errorf("Expected a line 4 warning, got %v", result.Warnings)
	}
}

func TestConvertFile_StrictNACHA(t *testing.T) {
	f := newFixture(t, control.PolicyWarn)
	f.svc.SetStrictNACHA(true)
	input := f.write(t, "payroll.ach", scenarioB("000000035000"))
	output := f.path("out.xml")

	result := f.svc.ConvertFile(context.Background(), service.ConversionRequest{InputPath: input, Format: "NACHA", OutputPath: output}, nil)
	if result.Success {
		t.Fatalf("Expected the structural check to reject a file without valid check digits")
	}
	if !strings.Contains(result.ErrorMessage, "structural validation") {
		t.Errorf("Unexpected message %q", result.ErrorMessage)
	}
	assertNoOutput(t, output)
}

func TestConvertFile_NACHAReadPaths(t *testing.T) {
	tests := []struct {
		name     string
		strict   bool
		expected string
	}{
		{"streamed", false, "Open"},
		{"strict reads once", true, "ReadLines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &recordingInput{}
			f := newFixtureWithInput(t, control.PolicyWarn, input)
			f.svc.SetStrictNACHA(tt.strict)
			path := f.write(t, "payroll.ach", scenarioB("000000035000"))

			f.svc.ConvertFile(context.Background(), service.ConversionRequest{
				InputPath: path, Format: "NACHA", OutputPath: f.path("payroll.xml"),
			}, nil)

			if len(input.calls) != 1 || input.calls[0] != tt.expected {
				t.Errorf("Expected a single %s call, got %v", tt.expected, input.calls)
			}
		})
	}
}
