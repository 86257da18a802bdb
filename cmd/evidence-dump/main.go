package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gxa/internal/evidencedump"
)

// Default configuration constants.
const (
	defaultTimeout    = 5 * time.Minute
	defaultRunTimeout = 2 * time.Hour
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		accessions = flag.String("accessions", "", "Comma separated experiment accessions")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout per experiment")
		outputDir  = flag.String("output", "", "Directory for ACCESSION.jsonl files (default: none)")
		foldChange = flag.String("fold-change", "", "Minimum absolute log2 fold change (default: server setting)")
		pValue     = flag.String("p-value", "", "Maximum adjusted p-value (default: server setting)")
		maxGenes   = flag.String("max-genes", "", "Genes kept per contrast, negative for all (default: server setting)")
		logFile    = flag.String("log", "", "Log file for run output (default: evidence_dump_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		evidencedump.ShowHelp()
		return
	}

	if err := evidencedump.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &evidencedump.Config{
		BaseURL:             *baseURL,
		Accessions:          evidencedump.ParseAccessions(*accessions),
		Workers:             *workers,
		Timeout:             *timeout,
		OutputDir:           *outputDir,
		LogFile:             *logFile,
		Verbose:             *verbose,
		FoldChangeCutoff:    *foldChange,
		PValueCutoff:        *pValue,
		MaxGenesPerContrast: *maxGenes,
	}

	if _, err := evidencedump.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Dump failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
