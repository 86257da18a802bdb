package evidencedump

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/okian/gxa/pkg/logger"
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "evidence_dump_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ParseAccessions splits a comma separated list, dropping blanks and repeats.
func ParseAccessions(list string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range strings.Split(list, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ShowHelp prints usage information for the evidence dump tool.
func ShowHelp() {
	os.Stdout.WriteString(`GXA Evidence Dump Tool
======================

Streams Open Targets evidence from a running service for many experiments
concurrently, verifies every record and optionally writes one JSON Lines
file per experiment.

Usage:
  go run cmd/evidence-dump/main.go -accessions E-GEOD-1,E-MTAB-2 [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -accessions string
        Comma separated experiment accessions (required)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout per experiment (default 5m)
  -output string
        Directory for ACCESSION.jsonl files (default: no files written)
  -fold-change string
        Minimum absolute log2 fold change (default: server setting)
  -p-value string
        Maximum adjusted p-value (default: server setting)
  -max-genes string
        Genes kept per contrast, negative for all (default: server setting)
  -log string
        Log file for run output (default: evidence_dump_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Verify two experiments without writing files
  go run cmd/evidence-dump/main.go -accessions E-GEOD-1,E-MTAB-2

  # Dump with stricter cut-offs
  go run cmd/evidence-dump/main.go -accessions E-GEOD-1 -p-value 0.01 -fold-change 1 -output dump
`)
}
