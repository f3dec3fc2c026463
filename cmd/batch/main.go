package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/batch"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	startTime := time.Now()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	input := flag.String("input", "", "Input JSONL file, '-' for stdin")
	output := flag.String("output", "", "Output file relative path")
	format := flag.String("format", batch.FormatJSONL, "Output file format. Supported formats: 'jsonl', 'summary'")
	summary := flag.String("summary", "", "Optional separate summary file")
	workers := flag.Int("workers", 5, "Concurrent guard workers")
	continueOnError := flag.Bool("continue-on-error", true, "Continue on write failures")
	dryRun := flag.Bool("dry-run", false, "Validate input without running guards")

	flag.Parse()

	if *input == "" {
		log.Fatal().Msg("required flag -input not provided")
	}
	formatValidator(format)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	ctx, cancel := setupGracefulShutdown()
	defer cancel()

	cfg := setup.LoadConfig()

	deps, err := setup.Wire(ctx, cfg, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Close()

	// Open input file
	var inputFile io.Reader
	if *input == "-" {
		inputFile = os.Stdin
		log.Info().Msg("Reading from stdin")
	} else {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatal().Err(err).Str("file", *input).Msg("Failed to open input file")
		}
		defer f.Close()
		inputFile = f
		log.Info().Str("file", *input).Msg("Reading input file")
	}

	// Read records
	reader := batch.NewReader(inputFile, deps.Logger)

	var records []batch.InputRecord
	for record := range reader.ReadAll(ctx) {
		records = append(records, record)
	}

	log.Info().Int("total", len(records)).Msg("Input file parsed")

	if *dryRun {
		dryRunAndExit(records)
	}

	// Open output file
	var outputFile io.Writer
	if *output == "" {
		outputFile = os.Stdout
		log.Info().Msg("Writing to stdout")
	} else {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("file", *output).Msg("Failed to create output file")
		}
		defer f.Close()
		outputFile = f
		log.Info().Str("file", *output).Msg("Writing to output file")
	}

	writers := []batch.Writer{newWriter(outputFile, *format, deps.Logger)}

	if *summary != "" {
		summaryFile, err := os.Create(*summary)
		if err != nil {
			log.Fatal().Err(err).Str("file", *summary).Msg("Failed to create summary file")
		}
		defer summaryFile.Close()
		writers = append(writers, newWriter(summaryFile, batch.FormatSummary, deps.Logger))
	}

	// Process with worker pool
	processor := batch.NewProcessor(deps.Dispatcher, *workers, deps.Logger)
	results := processor.Process(ctx, records)

	successCount := 0
	errorCount := 0

	for result := range results {
		failed := false
		for _, w := range writers {
			if err := w.Write(result); err != nil {
				log.Error().Err(err).Str("id", result.ID).Msg("Failed to write result")
				failed = true
			}
		}

		if failed {
			errorCount++
			if !*continueOnError {
				log.Fatal().Msg("Stopping due to write error")
			}
		} else {
			successCount++
		}
	}

	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to flush writer")
		}
	}

	log.Info().
		Int("success", successCount).
		Int("errors", errorCount).
		Dur("duration", time.Since(startTime)).
		Msg("Batch processing complete")
}

func newWriter(w io.Writer, format string, logger *zerolog.Logger) batch.Writer {
	writer, err := batch.NewWriter(w, format, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create writer")
	}
	return writer
}

func setupGracefulShutdown() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Warn().Msg("Received interrupt signal, finishing current work...")
		cancel()
	}()

	return ctx, cancel
}

func formatValidator(format *string) {
	validFormats := map[string]bool{batch.FormatJSONL: true, batch.FormatSummary: true}
	if !validFormats[*format] {
		log.Fatal().
			Str("format", *format).
			Msg("Invalid format. Supported: jsonl, summary")
	}
}

func dryRunAndExit(records []batch.InputRecord) {
	errorCount := 0
	for _, record := range records {
		if record.Error != nil {
			log.Error().
				Int("line", record.LineNumber).
				Err(record.Error).
				Msg("Validation error")
			errorCount++
		}
	}

	if errorCount > 0 {
		log.Fatal().Int("errors", errorCount).Msg("Validation failed")
	}

	log.Info().Msg("Validation successful")
	os.Exit(0)
}
