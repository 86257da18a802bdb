package evidencedump

import "time"

// Config holds configuration for an evidence dump run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Accessions []string      // Experiments to dump
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputDir  string        // Directory for {accession}.jsonl files; empty skips writing
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging

	// Cut-offs are passed through verbatim; empty leaves the server default.
	FoldChangeCutoff    string
	PValueCutoff        string
	MaxGenesPerContrast string
}

// Result is the outcome of one accession.
type Result struct {
	Accession  string
	Records    int
	Invalid    int
	Duplicates int
	Genes      int
	Err        error
}

// Stats holds run statistics.
type Stats struct {
	Experiments       int
	ExperimentsFailed int
	Records           int
	RecordsInvalid    int
	RecordsDuplicate  int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

func (s *Stats) add(r Result) {
	s.Experiments++
	if r.Err != nil {
		s.ExperimentsFailed++
	}
	s.Records += r.Records
	s.RecordsInvalid += r.Invalid
	s.RecordsDuplicate += r.Duplicates
}
