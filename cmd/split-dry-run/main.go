package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/ticketsplit-backend/internal/cli"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/config"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/logging"
)

func main() {
	flags, err := cli.ParseDryRunFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\nusage: split-dry-run -extraction ocr.json -assignments assignments.json [-verbose]\n", err)
		os.Exit(2)
	}

	level := "warn"
	if flags.Verbose {
		level = "debug"
	}
	logger := logging.NewLoggerWithSystem(config.LoggingConfig{Level: level, Format: "maven"}, "dry-run")

	run, err := cli.RunDryRun(flags, logger)
	if err != nil {
		logger.Error("Dry run failed", "error", err)
		os.Exit(1)
	}

	cli.PrintHeader(os.Stdout, run.Receipt)
	cli.PrintItems(os.Stdout, run.Receipt)
	cli.PrintSplitSummary(os.Stdout, run.Result)
}
