package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tiendc/go-deepcopy"
	"github.com/tirasundara/payment-converter/internal/control"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/mt103"
	"github.com/tirasundara/payment-converter/internal/nacha"
	"github.com/tirasundara/payment-converter/internal/pain001"
	"github.com/tirasundara/payment-converter/internal/security"
)

// ConversionRequest names one input file, its format and the output path
type ConversionRequest struct {
	InputPath  string `json:"input_path"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

// ConversionService orchestrates validate, read, parse, render and write
// for a single conversion. It keeps no state between conversions and may be
// shared by concurrent callers.
type ConversionService struct {
	validator *security.Validator
	input     domain.InputRepository
	output    domain.OutputRepository
	mt103     *mt103.Parser
	nacha     *nacha.Parser
	checker   *control.Checker
	renderer  *pain001.Renderer
	audit     *security.AuditLogger
	log       *logrus.Logger

	strictNACHA bool
	now         func() time.Time
}

// NewConversionService creates a new ConversionService
func NewConversionService(
	validator *security.Validator,
	input domain.InputRepository,
	output domain.OutputRepository,
	mt103Parser *mt103.Parser,
	nachaParser *nacha.Parser,
	checker *control.Checker,
	renderer *pain001.Renderer,
	audit *security.AuditLogger,
) *ConversionService {
	return &ConversionService{
		validator: validator,
		input:     input,
		output:    output,
		mt103:     mt103Parser,
		nacha:     nachaParser,
		checker:   checker,
		renderer:  renderer,
		audit:     audit,
		log:       logrus.New(),
		now:       time.Now,
	}
}

// SetLogger sets a custom logger for the service
func (s *ConversionService) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		s.log = logger
	}
}

// SetStrictNACHA makes NACHA conversions run the structural check first.
func (s *ConversionService) SetStrictNACHA(strict bool) {
	s.strictNACHA = strict
}

// SetClock replaces the time source for result timestamps.
func (s *ConversionService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// parsed is what a format pipeline hands to rendering
type parsed struct {
	records  int
	warnings []domain.Warning
	render   func() ([]byte, error)
}

// ConvertFile runs one conversion. It never returns an error; failures are
// reported in the result with a sanitized message. ctx is only consulted
// before work starts.
func (s *ConversionService) ConvertFile(ctx context.Context, req ConversionRequest, progress domain.ProgressFunc) domain.ConversionResult {
	if progress == nil {
		progress = func(string) {}
	}

	if err := ctx.Err(); err != nil {
		return domain.NewFailureResult("Conversion cancelled before it started", s.now())
	}

	format, err := domain.ParseInputFormat(req.Format)
	if err != nil {
		return domain.NewFailureResult("Unsupported input format: "+security.SanitizeForLogging(req.Format), s.now())
	}

	logger := s.log.WithFields(logrus.Fields{
		"format": format,
		"input":  security.SanitizeForLogging(req.InputPath),
	})

	progress("Starting " + string(format) + " conversion")
	outputPath, result, err := s.convert(format, req, progress)
	if err != nil {
		return s.fail(logger, format, err)
	}

	progress("Conversion completed")
	logger.WithFields(logrus.Fields{
		"records":  result.records,
		"warnings": len(result.warnings),
	}).Info("conversion completed")

	return domain.NewSuccessResult(outputPath, format, result.records, result.warnings, s.now())
}

func (s *ConversionService) convert(format domain.InputFormat, req ConversionRequest, progress domain.ProgressFunc) (string, parsed, error) {
	progress("Validating input")
	inputPath, err := s.validator.ValidatePath(req.InputPath)
	if err != nil {
		return "", parsed{}, err
	}
	outputPath, err := s.validator.ValidatePath(req.OutputPath)
	if err != nil {
		return "", parsed{}, err
	}
	if outputPath == inputPath {
		return "", parsed{}, domain.NewSecurityError("Output path must differ from input path", "output equals input")
	}
	if err := s.validator.ValidateFile(inputPath); err != nil {
		return "", parsed{}, err
	}
	s.audit.Event("conversion started", string(format)+" "+inputPath)

	var p parsed
	switch format {
	case domain.FormatMT103:
		p, err = s.parseMT103(inputPath, progress)
	case domain.FormatNACHA:
		p, err = s.parseNACHA(inputPath, progress)
	}
	if err != nil {
		return "", parsed{}, err
	}

	progress("Converting to " + domain.OutputFormatPain001)
	data, err := p.render()
	if err != nil {
		return "", parsed{}, fmt.Errorf("rendering %s: %w", domain.OutputFormatPain001, err)
	}

	progress("Writing output file")
	if err := s.output.WriteOnce(outputPath, data); err != nil {
		return "", parsed{}, fmt.Errorf("writing output: %w", err)
	}
	s.audit.Event("conversion output written", outputPath)

	return outputPath, p, nil
}

func (s *ConversionService) parseMT103(path string, progress domain.ProgressFunc) (parsed, error) {
	progress("Reading input file")
	text, err := s.input.ReadText(path)
	if err != nil {
		return parsed{}, err
	}

	progress("Parsing MT103 message")
	msg, warnings, err := s.mt103.Parse(text)
	if err != nil {
		return parsed{}, fmt.Errorf("parsing MT103 message: %w", err)
	}

	var snapshot domain.MT103Message
	if err := deepcopy.Copy(&snapshot, msg); err != nil {
		return parsed{}, fmt.Errorf("copying MT103 model: %w", err)
	}

	return parsed{
		records:  1,
		warnings: warnings,
		render:   func() ([]byte, error) { return s.renderer.RenderMT103(snapshot) },
	}, nil
}

func (s *ConversionService) parseNACHA(path string, progress domain.ProgressFunc) (parsed, error) {
	batch, warnings, err := s.readNACHA(path, progress)
	if err != nil {
		return parsed{}, err
	}

	controlWarnings, err := s.checker.Apply(batch)
	if err != nil {
		return parsed{}, fmt.Errorf("checking control totals: %w", err)
	}
	warnings = append(warnings, controlWarnings...)

	var snapshot domain.PaymentBatch
	if err := deepcopy.Copy(&snapshot, batch); err != nil {
		return parsed{}, fmt.Errorf("copying NACHA model: %w", err)
	}

	return parsed{
		records:  len(snapshot.Transfers),
		warnings: warnings,
		render:   func() ([]byte, error) { return s.renderer.RenderBatch(snapshot) },
	}, nil
}

// readNACHA streams the file through the parser. In strict mode the file is
// read once and the structural check and the parser see the same lines.
func (s *ConversionService) readNACHA(path string, progress domain.ProgressFunc) (domain.PaymentBatch, []domain.Warning, error) {
	progress("Reading input file")

	if !s.strictNACHA {
		rc, err := s.input.Open(path)
		if err != nil {
			return domain.PaymentBatch{}, nil, err
		}
		defer rc.Close()

		progress("Parsing NACHA file")
		batch, warnings, err := s.nacha.ParseReader(rc, progress)
		if err != nil {
			return domain.PaymentBatch{}, nil, fmt.Errorf("parsing NACHA file: %w", err)
		}
		return batch, warnings, nil
	}

	lines, err := s.input.ReadLines(path)
	if err != nil {
		return domain.PaymentBatch{}, nil, err
	}

	progress("Checking NACHA file structure")
	st, err := nacha.CheckStructure(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return domain.PaymentBatch{}, nil, err
	}
	s.log.WithFields(logrus.Fields{
		"batches": st.Batches,
		"entries": st.Entries,
	}).Debug("NACHA structure verified")

	progress("Parsing NACHA file")
	batch, warnings, err := s.nacha.Parse(lines, progress)
	if err != nil {
		return domain.PaymentBatch{}, nil, fmt.Errorf("parsing NACHA file: %w", err)
	}
	return batch, warnings, nil
}

// fail turns err into a failure result. Usage errors carry no input data
// and are reported as is; everything else is sanitized.
func (s *ConversionService) fail(logger *logrus.Entry, format domain.InputFormat, err error) domain.ConversionResult {
	prefix := string(format) + " conversion failed: "

	var usageErr *domain.UsageError
	if errors.As(err, &usageErr) {
		logger.WithError(err).Error("conversion failed")
		return domain.NewFailureResult(prefix+usageErr.Error(), s.now())
	}

	var secErr *domain.SecurityError
	if errors.As(err, &secErr) {
		s.audit.Violation("conversion rejected", err)
		logger.WithField("reason", secErr.Reason).Warn("conversion rejected")
		return domain.NewFailureResult(prefix+security.SanitizeErrorMessage(secErr.Reason), s.now())
	}

	logger.WithField("error", security.SanitizeForLogging(err.Error())).Error("conversion failed")
	return domain.NewFailureResult(prefix+security.SanitizeErrorMessage(err.Error()), s.now())
}
