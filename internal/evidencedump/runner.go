package evidencedump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/gxa/pkg/logger"
)

// ErrNoAccessions is returned when there is nothing to dump.
var ErrNoAccessions = errors.New("no accessions given")

// Run dumps and verifies the evidence of every configured accession.
// It fails when any experiment failed or produced invalid records.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if len(config.Accessions) == 0 {
		return nil, ErrNoAccessions
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting evidence dump",
		logger.String("baseURL", config.BaseURL),
		logger.Int("experiments", len(config.Accessions)),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("outputDir", config.OutputDir),
		logger.Any("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, directoryPermission); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, r := range dumpAll(ctx, config) {
		stats.add(r)
		if r.Err != nil {
			logger.Get().Error(ctx, "experiment failed",
				logger.String("accession", r.Accession), logger.Error(r.Err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.ExperimentsFailed > 0 || stats.RecordsInvalid > 0 {
		return stats, fmt.Errorf("%d experiments failed, %d invalid records", stats.ExperimentsFailed, stats.RecordsInvalid)
	}
	logger.Get().Info(ctx, "dump completed successfully")
	return stats, nil
}

// dumpAll fans the accessions out over the worker pool. Results keep the
// order of config.Accessions.
func dumpAll(ctx context.Context, config *Config) []Result {
	client := newHTTPClient(config.Timeout)
	results := make([]Result, len(config.Accessions))

	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				acc := config.Accessions[index]
				if err := ctx.Err(); err != nil {
					results[index] = Result{Accession: acc, Err: err}
					continue
				}
				results[index] = dumpOne(ctx, client, config, acc)
			}
		}()
	}

	for i := range config.Accessions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// dumpOne streams, verifies and optionally writes one accession.
func dumpOne(ctx context.Context, client *HTTPClient, config *Config, accession string) (res Result) {
	res.Accession = accession
	log := logger.Get()

	var out *bufio.Writer
	if config.OutputDir != "" {
		path := filepath.Join(config.OutputDir, accession+".jsonl")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
		if err != nil {
			res.Err = fmt.Errorf("failed to create file: %w", err)
			return res
		}
		out = bufio.NewWriter(f)
		defer func() {
			if err := out.Flush(); err != nil && res.Err == nil {
				res.Err = fmt.Errorf("failed to write %s: %w", path, err)
			}
			if err := f.Close(); err != nil && res.Err == nil {
				res.Err = fmt.Errorf("failed to close %s: %w", path, err)
			}
		}()
	}

	v := newVerifier(accession)
	res.Err = streamEvidence(ctx, client, config, accession, func(line []byte) error {
		res.Records++
		dup, err := v.check(line)
		if err != nil {
			res.Invalid++
			log.Warn(ctx, "invalid record",
				logger.String("accession", accession),
				logger.Int("line", res.Records),
				logger.Error(err))
			return nil
		}
		if dup {
			res.Duplicates++
			log.Debug(ctx, "repeated association", logger.String("accession", accession), logger.Int("line", res.Records))
		}
		if out != nil {
			if _, err := out.Write(line); err != nil {
				return err
			}
			return out.WriteByte('\n')
		}
		return nil
	})
	res.Genes = len(v.genes)

	log.Info(ctx, "experiment dumped",
		logger.String("accession", accession),
		logger.Int("records", res.Records),
		logger.Int("genes", res.Genes),
		logger.Int("invalid", res.Invalid),
		logger.Int("duplicates", res.Duplicates))
	return res
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, strings.TrimRight(config.BaseURL, "/")+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var recordsPerSecond float64
	if stats.Duration > 0 {
		recordsPerSecond = float64(stats.Records) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("experiments", stats.Experiments),
		logger.Int("experimentsFailed", stats.ExperimentsFailed),
		logger.Int("records", stats.Records),
		logger.Int("recordsInvalid", stats.RecordsInvalid),
		logger.Int("recordsDuplicate", stats.RecordsDuplicate),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("recordsPerSecond", recordsPerSecond))
}
