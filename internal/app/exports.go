package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gxa/internal/adapters/blob"
	exportqueue "github.com/okian/gxa/internal/adapters/mq/queue"
	"github.com/okian/gxa/internal/domain/dedupe"
	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/types"
	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"
)

// ExportKey is where the records of job are written.
func ExportKey(accession, jobID string) string {
	return "evidence/" + accession + "/" + jobID + ".jsonl"
}

func exportDedupeKey(r types.ExportRequest) string {
	return dedupe.Key(r.Accession,
		strconv.FormatFloat(r.FoldChangeCutoff, 'g', -1, 64),
		strconv.FormatFloat(r.PValueCutoff, 'g', -1, 64),
		strconv.Itoa(r.MaxGenesPerContrast))
}

// SubmitExport queues an evidence export. Submitting the same request while an
// earlier one is still pending returns the pending job.
func (s *Service) SubmitExport(ctx context.Context, req types.ExportRequest) (types.ExportJob, error) {
	s.mu.RLock()
	started, q := s.started, s.exportQueue
	s.mu.RUnlock()
	if !started {
		return types.ExportJob{}, ErrNotStarted
	}
	if req.FoldChangeCutoff < 0 || req.PValueCutoff < 0 || req.PValueCutoff > 1 {
		return types.ExportJob{}, fmt.Errorf("%w: cut-offs out of range", ErrInvalidRequest)
	}
	if _, _, err := s.load(ctx, req.Accession); err != nil {
		return types.ExportJob{}, err
	}

	key := exportDedupeKey(req)
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if s.deduper.SeenAndRecord(ctx, key) {
		if j, ok := s.jobs[s.pending[key]]; ok {
			s.logger.Debug(ctx, "duplicate export request",
				logger.String("accession", req.Accession),
				logger.String("job_id", j.ID))
			return *j, nil
		}
	}

	job := &types.ExportJob{
		ID:          uuid.NewString(),
		Request:     req,
		Status:      types.ExportQueued,
		SubmittedAt: time.Now().UTC(),
	}
	if !q.Enqueue(ctx, *job) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordExportJob("rejected")
		return types.ExportJob{}, exportqueue.ErrFull
	}
	s.jobs[job.ID] = job
	s.pending[key] = job.ID
	metrics.RecordExportJob(string(types.ExportQueued))
	s.logger.Info(ctx, "export queued",
		logger.String("accession", req.Accession),
		logger.String("job_id", job.ID))
	return *job, nil
}

// Export returns the current state of a job.
func (s *Service) Export(_ context.Context, id string) (types.ExportJob, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return types.ExportJob{}, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return *j, nil
}

func (s *Service) update(id string, fn func(j *types.ExportJob)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(j)
	if j.Status.Terminal() {
		key := exportDedupeKey(j.Request)
		if s.pending[key] == j.ID {
			delete(s.pending, key)
			s.deduper.Unrecord(context.Background(), key)
		}
	}
}

// exportRunner adapts the Service to the worker pool.
type exportRunner struct {
	s *Service
}

func (r *exportRunner) Export(ctx context.Context, j exportqueue.Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	s := r.s
	now := time.Now().UTC()
	s.update(j.ID, func(job *types.ExportJob) {
		job.Status = types.ExportRunning
		job.StartedAt = &now
	})
	metrics.RecordExportJob(string(types.ExportRunning))

	n, key, err := s.writeExport(ctx, j)
	finished := time.Now().UTC()
	s.update(j.ID, func(job *types.ExportJob) {
		job.FinishedAt = &finished
		job.Records = n
		if err != nil {
			job.Status = types.ExportFailed
			job.Error = err.Error()
			return
		}
		job.Status = types.ExportDone
		job.ObjectKey = key
	})
	if err != nil {
		metrics.RecordExportJob(string(types.ExportFailed))
		return err
	}
	metrics.RecordExportJob(string(types.ExportDone))
	s.logger.Info(ctx, "export written",
		logger.String("job_id", j.ID),
		logger.String("key", key),
		logger.Int("records", n))
	return nil
}

// writeExport streams the records of j into the blob store, one JSON document
// per line.
func (s *Service) writeExport(ctx context.Context, j exportqueue.Job) (int, string, error) { //nolint:gocritic // hugeParam
	opts := evidence.Options{
		FoldChangeCutoff:    j.Request.FoldChangeCutoff,
		PValueCutoff:        j.Request.PValueCutoff,
		MaxGenesPerContrast: j.Request.MaxGenesPerContrast,
	}
	key := ExportKey(j.Request.Accession, j.ID)

	pr, pw := io.Pipe()
	count := 0
	go func() {
		enc := json.NewEncoder(pw)
		err := s.Evidence(ctx, j.Request.Accession, opts, func(rec evidence.Record) error {
			count++
			return enc.Encode(rec)
		})
		pw.CloseWithError(err)
	}()

	_, err := s.blobs.Put(ctx, key, pr, blob.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata: map[string]string{
			"accession": j.Request.Accession,
			"job-id":    j.ID,
		},
	})
	// unblock the producer if Put gave up early
	_ = pr.CloseWithError(err)
	if err != nil {
		return 0, "", fmt.Errorf("write %s: %w", key, err)
	}
	return count, key, nil
}
