// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named by
// GXA_CONFIG, then GXA_* environment variables.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// IndexURL is the base URL of the Solr server.
	IndexURL       string `koanf:"index_url"`
	IndexTimeoutMS int    `koanf:"index_timeout_ms"`
	// BulkCollection holds baseline expression documents.
	BulkCollection string `koanf:"bulk_collection"`
	// DifferentialCollection holds differential analytics documents.
	DifferentialCollection string `koanf:"differential_collection"`
	// MaxRows caps the rows of one profiles query; 0 uses the index client default.
	MaxRows int `koanf:"max_rows"`

	// BlobDriver selects the store for experiment files and exports: fs, memory or s3.
	BlobDriver            string `koanf:"blob_driver"`
	BlobFSRoot            string `koanf:"blob_fs_root"`
	BlobS3Bucket          string `koanf:"blob_s3_bucket"`
	BlobS3Region          string `koanf:"blob_s3_region"`
	BlobS3Endpoint        string `koanf:"blob_s3_endpoint"`
	BlobS3PathStyle       bool   `koanf:"blob_s3_path_style"`
	BlobS3AccessKeyID     string `koanf:"blob_s3_access_key_id"`
	BlobS3SecretAccessKey string `koanf:"blob_s3_secret_access_key"`

	// CatalogPrefix is the blob prefix of experiment documents.
	CatalogPrefix string `koanf:"catalog_prefix"`

	// CacheSize and CacheTTLSeconds size the heatmap-groups cache.
	CacheSize       int `koanf:"cache_size"`
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// ExportQueueSize bounds the in-memory export queue.
	ExportQueueSize int `koanf:"export_queue_size"`
	// ExportWorkerCount sets the number of export workers.
	ExportWorkerCount int `koanf:"export_worker_count"`
	// ExportDedupeSize bounds the pending export keys remembered.
	ExportDedupeSize int `koanf:"export_dedupe_size"`
	// ExportTimeoutSeconds bounds one export job; 0 disables the bound.
	ExportTimeoutSeconds int `koanf:"export_timeout_seconds"`

	// EvidenceResourceVersion is stamped on every evidence record.
	EvidenceResourceVersion string `koanf:"evidence_resource_version"`
	// EvidenceMaxGenesPerContrast is the default gene limit; negative for none.
	EvidenceMaxGenesPerContrast int     `koanf:"evidence_max_genes_per_contrast"`
	EvidenceFoldChangeCutoff    float64 `koanf:"evidence_fold_change_cutoff"`
	EvidencePValueCutoff        float64 `koanf:"evidence_p_value_cutoff"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need one.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                    "info",
		LogFormat:                   "text",
		Addr:                        ":9080",
		IndexURL:                    "http://localhost:8983",
		IndexTimeoutMS:              10_000,
		BulkCollection:              "bulk-analytics",
		DifferentialCollection:      "bulk-analytics",
		MaxRows:                     0,
		BlobDriver:                  "fs",
		BlobFSRoot:                  "./data",
		BlobS3Region:                "us-east-1",
		CatalogPrefix:               "catalog",
		CacheSize:                   512,
		CacheTTLSeconds:             600,
		ExportQueueSize:             256,
		ExportWorkerCount:           runtime.NumCPU(),
		ExportDedupeSize:            4096,
		ExportTimeoutSeconds:        1800,
		EvidenceResourceVersion:     "",
		EvidenceMaxGenesPerContrast: -1,
		EvidenceFoldChangeCutoff:    0,
		EvidencePValueCutoff:        1,
	}
}
