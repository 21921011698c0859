package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/tirasundara/payment-converter/internal/config"
	"github.com/tirasundara/payment-converter/internal/control"
	"github.com/tirasundara/payment-converter/internal/domain"
	"github.com/tirasundara/payment-converter/internal/mt103"
	"github.com/tirasundara/payment-converter/internal/nacha"
	"github.com/tirasundara/payment-converter/internal/pain001"
	"github.com/tirasundara/payment-converter/internal/report"
	"github.com/tirasundara/payment-converter/internal/repository"
	"github.com/tirasundara/payment-converter/internal/security"
	"github.com/tirasundara/payment-converter/internal/service"
)

func main() {
	// Command-line flags
	var (
		inputFiles    string
		inputFormat   string
		outputFile    string
		outputDir     string
		reportFile    string
		controlTotals string
		strict        bool
		workers       int
		prettyPrint   bool
	)

	flag.StringVar(&inputFiles, "input", "", "Comma-separated paths to MT103 or NACHA input files")
	flag.StringVar(&inputFormat, "format", "", "Input format: MT103 or NACHA")
	flag.StringVar(&outputFile, "output", "", "Path to the pain.001 XML output (single input only)")
	flag.StringVar(&outputDir, "output-dir", "", "Directory for XML outputs (defaults to each input's directory)")
	flag.StringVar(&reportFile, "report", "", "Path to the JSON report (if empty, writes to stdout)")
	flag.StringVar(&controlTotals, "control-totals", "", "NACHA control total policy: ignore, warn or fail")
	flag.BoolVar(&strict, "strict", false, "Run the NACHA structural check before parsing")
	flag.IntVar(&workers, "workers", 0, "Number of concurrent conversions")
	flag.BoolVar(&prettyPrint, "pretty", true, "Pretty print JSON report")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		exitWithError(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Flags given explicitly win over the environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "control-totals":
			cfg.ControlTotals = controlTotals
		case "strict":
			cfg.NACHAStrict = strict
		case "workers":
			cfg.Workers = workers
		}
	})
	if err := cfg.Validate(); err != nil {
		exitWithError(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Validate required flags
	if inputFormat == "" {
		exitWithError("Input format is required")
	}
	inputs := splitList(inputFiles)
	if len(inputs) == 0 {
		exitWithError("At least one input file path is required")
	}
	if outputFile != "" && len(inputs) > 1 {
		exitWithError("-output can only be used with a single input; use -output-dir")
	}

	reqs := make([]service.ConversionRequest, 0, len(inputs))
	for _, input := range inputs {
		output := outputFile
		if output == "" {
			output, err = outputPathFor(input, outputDir)
			if err != nil {
				exitWithError(fmt.Sprintf("Invalid input: %v", err))
			}
		}
		reqs = append(reqs, service.ConversionRequest{
			InputPath:  input,
			Format:     inputFormat,
			OutputPath: output,
		})
	}

	log := cfg.NewLogger()
	log.SetOutput(os.Stderr)
	audit := security.NewAuditLogger(log)

	validator := security.NewValidator(cfg.Limits(), cfg.PathPolicy(), nil, audit)
	repo := repository.NewFileRepository(cfg.OverwriteOutput)

	mt103Parser := mt103.NewParser(validator)
	mt103Parser.SetLogger(log)
	nachaParser := nacha.NewParser(validator)
	nachaParser.SetLogger(log)

	checker := control.NewChecker(cfg.ControlPolicy())
	checker.SetLogger(log)

	renderer := pain001.NewRenderer(validator.InjectionPolicy(), audit)
	renderer.SetInitiatingParty(cfg.InitiatingParty)

	conversionService := service.NewConversionService(validator, repo, repo, mt103Parser, nachaParser, checker, renderer, audit)
	conversionService.SetLogger(log)
	conversionService.SetStrictNACHA(cfg.NACHAStrict)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run conversions
	var results []domain.ConversionResult
	if len(reqs) == 1 {
		logger := log.WithField("input", security.SanitizeForLogging(reqs[0].InputPath))
		results = []domain.ConversionResult{
			conversionService.ConvertFile(ctx, reqs[0], func(msg string) {
				logger.Info(msg)
			}),
		}
	} else {
		results = conversionService.ConvertAll(ctx, reqs, cfg.Workers)
	}

	// Format the output
	var formatter report.OutputFormatter = report.NewJSONFormatter(prettyPrint)
	output, err := formatter.Format(report.NewReport(results, time.Now()))
	if err != nil {
		exitWithError(fmt.Sprintf("Failed to format report: %v", err))
	}

	// Output the report
	if reportFile != "" {
		// If no extension is provided, add the formatter's default extension
		if filepath.Ext(reportFile) == "" {
			reportFile = fmt.Sprintf("%s.%s", reportFile, formatter.FileExtension())
		}

		if err := os.WriteFile(reportFile, output, 0644); err != nil {
			exitWithError(fmt.Sprintf("Failed to write report file: %v", err))
		}
	} else {
		fmt.Println(string(output))
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		log.WithField("failed", failed).Error("some conversions failed")
		stop()
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// outputPathFor swaps the input extension for .xml, in dir when given
func outputPathFor(input, dir string) (string, error) {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".xml"
	if !security.IsFilenameSafe(name) {
		return "", fmt.Errorf("cannot derive an output name from %q; use -output", base)
	}

	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name), nil
}

func exitWithError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Run with -h flag for usage information.\n")
	os.Exit(1)
}
