package domain

import "time"

// ConversionResult is what a caller gets back from one conversion. On failure
// only ErrorMessage is meaningful and it has already been sanitized.
type ConversionResult struct {
	Success          bool      `json:"success"`
	OutputPath       string    `json:"output_path,omitempty"`
	InputFormat      string    `json:"input_format,omitempty"`
	OutputFormat     string    `json:"output_format,omitempty"`
	RecordsProcessed int       `json:"records_processed"`
	Warnings         []string  `json:"warnings"`
	ErrorMessage     string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewSuccessResult builds a successful result.
func NewSuccessResult(outputPath string, inputFormat InputFormat, records int, warnings []Warning, at time.Time) ConversionResult {
	result := ConversionResult{
		Success:          true,
		OutputPath:       outputPath,
		InputFormat:      string(inputFormat),
		OutputFormat:     OutputFormatPain001,
		RecordsProcessed: records,
		Warnings:         make([]string, 0, len(warnings)),
		Timestamp:        at,
	}
	for _, w := range warnings {
		result.AddWarning(w.String())
	}
	return result
}

// NewFailureResult builds a failed result carrying message.
func NewFailureResult(message string, at time.Time) ConversionResult {
	return ConversionResult{
		Success:      false,
		ErrorMessage: message,
		Warnings:     []string{},
		Timestamp:    at,
	}
}

// AddWarning appends a warning message.
func (r *ConversionResult) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}
