// Package types contains the wire types shared by the HTTP layer, the export
// pipeline and the evidence-dump client.
package types

import "time"

// ExportStatus is the lifecycle state of an export job.
type ExportStatus string

const (
	ExportQueued  ExportStatus = "queued"
	ExportRunning ExportStatus = "running"
	ExportDone    ExportStatus = "done"
	ExportFailed  ExportStatus = "failed"
)

// Terminal reports whether the job will not change any more.
func (s ExportStatus) Terminal() bool {
	return s == ExportDone || s == ExportFailed
}

// ExportRequest asks for the evidence stream of one experiment to be written
// to the blob store.
type ExportRequest struct {
	Accession           string  `json:"accession"`
	FoldChangeCutoff    float64 `json:"log_fold_change_cutoff"`
	PValueCutoff        float64 `json:"p_value_cutoff"`
	MaxGenesPerContrast int     `json:"max_genes_per_contrast"`
}

// ExportJob is the state of one export.
type ExportJob struct {
	ID          string        `json:"id"`
	Request     ExportRequest `json:"request"`
	Status      ExportStatus  `json:"status"`
	Records     int           `json:"records"`
	ObjectKey   string        `json:"object_key,omitempty"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// ProfileRequest is the body of a baseline profiles request.
type ProfileRequest struct {
	GeneIDs           []string `json:"gene_ids"`
	SelectedColumnIDs []string `json:"selected_column_ids,omitempty"`
	Unit              string   `json:"unit,omitempty"`
	Cutoff            float64  `json:"cutoff"`
}

// Expression is one assay group cell of a profile.
type Expression struct {
	AssayGroupID string    `json:"assay_group_id"`
	Level        float64   `json:"level"`
	Quartiles    []float64 `json:"quartiles,omitempty"`
}

// Profile is the wire form of one gene's baseline profile.
type Profile struct {
	GeneID      string       `json:"gene_id"`
	GeneName    string       `json:"gene_name"`
	MaxLevel    float64      `json:"max_level"`
	Expressions []Expression `json:"expressions"`
}

// ProfilesResponse is the answer to a profiles request.
type ProfilesResponse struct {
	Accession string    `json:"accession"`
	Unit      string    `json:"unit"`
	Profiles  []Profile `json:"profiles"`
}

// GeneCountResponse is the number of genes expressed above a cutoff.
type GeneCountResponse struct {
	Accession string  `json:"accession"`
	Unit      string  `json:"unit"`
	Cutoff    float64 `json:"cutoff"`
	Genes     int     `json:"genes"`
}

// Stats summarises the service state.
type Stats struct {
	Experiments      int     `json:"experiments"`
	QueueDepth       int     `json:"queue_depth"`
	QueueCapacity    int     `json:"queue_capacity"`
	Workers          int     `json:"workers"`
	ExportsProcessed int64   `json:"exports_processed"`
	ExportsPending   int     `json:"exports_pending"`
	CacheEntries     int     `json:"cache_entries"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
