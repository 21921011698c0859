package report

import (
	"encoding/json"
	"time"

	"github.com/tirasundara/payment-converter/internal/domain"
)

// Report is the document a CLI run prints: every result plus totals
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Total       int                       `json:"total"`
	Succeeded   int                       `json:"succeeded"`
	Failed      int                       `json:"failed"`
	Records     int                       `json:"records_processed"`
	Warnings    int                       `json:"warnings"`
	Results     []domain.ConversionResult `json:"results"`
}

// NewReport summarises results as of at.
func NewReport(results []domain.ConversionResult, at time.Time) Report {
	r := Report{
		GeneratedAt: at,
		Total:       len(results),
		Results:     results,
	}
	if r.Results == nil {
		r.Results = []domain.ConversionResult{}
	}

	for _, res := range results {
		if res.Success {
			r.Succeeded++
		} else {
			r.Failed++
		}
		r.Records += res.RecordsProcessed
		r.Warnings += len(res.Warnings)
	}
	return r
}

// OutputFormatter defines the interface for formatting conversion reports
type OutputFormatter interface {
	Format(report Report) ([]byte, error)
	FileExtension() string
}

// JSONFormatter formats conversion reports as JSON
type JSONFormatter struct {
	PrettyPrint bool
}

func NewJSONFormatter(prettyPrint bool) *JSONFormatter {
	return &JSONFormatter{
		PrettyPrint: prettyPrint,
	}
}

// Format implements the OutputFormatter interface for JSON
func (f *JSONFormatter) Format(report Report) ([]byte, error) {
	if f.PrettyPrint {
		return json.MarshalIndent(report, "", "  ")
	}
	return json.Marshal(report)
}

func (f *JSONFormatter) FileExtension() string {
	return "json"
}
