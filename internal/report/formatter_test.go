package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/report"
)

var at = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

func sampleResults() []domain.ConversionResult {
	return []domain.ConversionResult{
		domain.NewSuccessResult("/tmp/a.xml", domain.FormatMT103, 1, nil, at),
		domain.NewSuccessResult("/tmp/b.xml", domain.FormatNACHA, 2,
			[]domain.Warning{{Line: 4, Message: "line too short"}}, at),
		domain.NewFailureResult("Unsupported input format: MT940", at),
	}
}

func TestNewReport(t *testing.T) {
	r := report.NewReport(sampleResults(), at)

	if r.Total != 3 {
		t.Errorf("Expected 3 results, got %d", r.Total)
	}
	if r.Succeeded != 2 || r.Failed != 1 {
		t.Errorf("Expected 2 succeeded and 1 failed, got %d and %d", r.Succeeded, r.Failed)
	}
	if r.Records != 3 {
		t.Errorf("Expected 3 records, got %d", r.Records)
	}
	if r.Warnings != 1 {
		t.Errorf("Expected 1 warning, got %d", r.Warnings)
	}
}

func TestNewReport_Empty(t *testing.T) {
	r := report.NewReport(nil, at)
	if r.Results == nil {
		t.Errorf("Expected an empty, non-nil result list")
	}

	out, err := report.NewJSONFormatter(false).Format(r)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(string(out), `"results":[]`) {
		t.Errorf("Expected an empty results array, got %s", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	r := report.NewReport(sampleResults(), at)

	tests := []struct {
		name   string
		pretty bool
	}{
		{"compact", false},
		{"pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := report.NewJSONFormatter(tt.pretty)
			out, err := f.Format(r)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if strings.Contains(string(out), "\n") != tt.pretty {
				t.Errorf("Expected pretty=%v output, got %s", tt.pretty, out)
			}

			var decoded struct {
				Succeeded int `json:"succeeded"`
				Results   []struct {
					Success  bool     `json:"success"`
					Error    string   `json:"error"`
					Warnings []string `json:"warnings"`
				} `json:"results"`
			}
			if err := json.Unmarshal(out, &decoded); err != nil {
				t.Fatalf("Failed to decode output: %v", err)
			}
			if decoded.Succeeded != 2 || len(decoded.Results) != 3 {
				t.Errorf("Unexpected decoded report %+v", decoded)
			}
			if decoded.Results[1].Warnings[0] != "line 4: line too short" {
				t.Errorf("Expected line-numbered warning, got %v", decoded.Results[1].Warnings)
			}
			if decoded.Results[2].Error != "Unsupported input format: MT940" {
				t.Errorf("Expected failure message, got %q", decoded.Results[2].Error)
			}
		})
	}

	if ext := report.NewJSONFormatter(false).FileExtension(); ext != "json" {
		t.Errorf("Expected json, got %s", ext)
	}
}
