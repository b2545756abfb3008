package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/config"
	"github.com/iwvelando/setaside/internal/installment"
	"github.com/iwvelando/setaside/internal/logging"
	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/datetime"
	"github.com/iwvelando/setaside/pkg/output"
	"github.com/iwvelando/setaside/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	modeAllocate = "allocate"
	modeDates    = "dates"
)

type options struct {
	configLocation string
	outputFormat   string
	outputFile     string
	logLevel       string
	mode           string
	printConfig    bool

	total                  string
	nonCapitalized         string
	deferredNonCapitalized string
	deferred               string
	accrued                string

	nextDue  string
	maturity string
	today    string
	selected string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := flag.NewFlagSet("setaside", flag.ContinueOnError)
	flags.StringVar(&opts.configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, xlsx")
	flags.StringVar(&opts.outputFile, "output-file", "", "write output here instead of stdout (required for xlsx)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&opts.mode, "mode", modeAllocate, "what to compute: allocate or dates")
	flags.BoolVar(&opts.printConfig, "print-config", false, "print the effective configuration and exit")

	flags.StringVar(&opts.total, "total", "", "set-aside amount, e.g. $10,000.00")
	flags.StringVar(&opts.nonCapitalized, "non-cap", "0", "non-capitalized interest capacity")
	flags.StringVar(&opts.deferredNonCapitalized, "deferred-non-cap", "0", "deferred non-capitalized interest capacity")
	flags.StringVar(&opts.deferred, "deferred", "0", "deferred interest capacity")
	flags.StringVar(&opts.accrued, "accrued", "0", "accrued interest capacity")

	flags.StringVar(&opts.nextDue, "next-due", "", "next installment due date (YYYY-MM-DD or MM/DD/YYYY)")
	flags.StringVar(&opts.maturity, "maturity", "", "loan maturity date (YYYY-MM-DD or MM/DD/YYYY)")
	flags.StringVar(&opts.today, "today", "", "reference date, defaults to now")
	flags.StringVar(&opts.selected, "selected", "", "previously selected installment date")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.mode != modeAllocate && opts.mode != modeDates {
		return options{}, fmt.Errorf("expected mode of %s or %s, got %s", modeAllocate, modeDates, opts.mode)
	}
	return opts, nil
}

// loadConfiguration falls back to defaults when the default config file is absent.
func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.LoadConfiguration("")
		}
	}
	return config.LoadConfiguration(path)
}

func buildReport(opts options, now time.Time) (output.Report, error) {
	var report output.Report

	switch opts.mode {
	case modeAllocate:
		if opts.total == "" {
			return report, fmt.Errorf("-total is required in %s mode", modeAllocate)
		}
		report.Input = allocation.FromStrings(opts.total, opts.nonCapitalized, opts.deferredNonCapitalized, opts.deferred, opts.accrued)
		out := allocation.Allocate(report.Input)
		report.Allocation = &out

	case modeDates:
		if opts.nextDue == "" || opts.maturity == "" {
			return report, fmt.Errorf("-next-due and -maturity are required in %s mode", modeDates)
		}
		nextDue, err := datetime.ParseFlexible(opts.nextDue)
		if err != nil {
			return report, fmt.Errorf("invalid -next-due: %w", err)
		}
		maturity, err := datetime.ParseFlexible(opts.maturity)
		if err != nil {
			return report, fmt.Errorf("invalid -maturity: %w", err)
		}
		today := now
		if opts.today != "" {
			if today, err = datetime.ParseFlexible(opts.today); err != nil {
				return report, fmt.Errorf("invalid -today: %w", err)
			}
		}
		series := installment.Generate(nextDue, maturity, today, opts.selected)
		report.Series = &series
	}

	return report, nil
}

func render(w io.Writer, format string, report output.Report) error {
	switch format {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		output.CsvFormat(w, report)
	case constants.OutputFormatXLSX:
		return output.XlsxFormat(w, report)
	}
	return nil
}

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid arguments\", \"error\": \"%v\"}\n", err)
		os.Exit(2)
	}

	conf, err := loadConfiguration(opts.configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", opts.configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, opts.logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if opts.printConfig {
		if err := conf.Export(os.Stdout); err != nil {
			logger.Fatal("failed to export configuration", zap.String("op", "main"), zap.Error(err))
		}
		return
	}

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	outputFile := conf.Output.File
	if opts.outputFile != "" {
		outputFile = opts.outputFile
	}
	if outputFormat == constants.OutputFormatXLSX && outputFile == "" {
		logger.Fatal("xlsx output requires -output-file", zap.String("op", "main"))
	}

	report, err := buildReport(opts, time.Now())
	if err != nil {
		logger.Fatal("failed to compute result",
			zap.String("op", "main"),
			zap.String("mode", opts.mode),
			zap.Error(err),
		)
	}

	var w io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			logger.Fatal("failed to create output file",
				zap.String("op", "main"),
				zap.String("file", outputFile),
				zap.Error(err),
			)
		}
		defer file.Close()
		w = file
	}

	if err := render(w, outputFormat, report); err != nil {
		logger.Error("failed to write output",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
		return
	}

	logger.Debug("done",
		zap.String("op", "main"),
		zap.String("mode", opts.mode),
		zap.String("format", outputFormat),
	)
}
