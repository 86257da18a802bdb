package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "GXA_"
	envFileVar = "GXA_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GXA_CONFIG is set
//  3. env (prefix GXA_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GXA_INDEX_URL -> index_url; keys are flat so underscores are kept.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// the file path itself is not a setting
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.IndexURL) == "":
		return fmt.Errorf("%w: index_url must not be empty", ErrInvalidConfig)
	case c.IndexTimeoutMS <= 0:
		return fmt.Errorf("%w: index_timeout_ms must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.CacheSize <= 0:
		return fmt.Errorf("%w: cache_size must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.ExportQueueSize <= 0:
		return fmt.Errorf("%w: export_queue_size must be positive", ErrInvalidConfig)
	case c.ExportWorkerCount <= 0:
		return fmt.Errorf("%w: export_worker_count must be positive", ErrInvalidConfig)
	case c.ExportDedupeSize <= 0:
		return fmt.Errorf("%w: export_dedupe_size must be positive", ErrInvalidConfig)
	case c.ExportTimeoutSeconds < 0:
		return fmt.Errorf("%w: export_timeout_seconds must not be negative", ErrInvalidConfig)
	case c.EvidenceFoldChangeCutoff < 0:
		return fmt.Errorf("%w: evidence_fold_change_cutoff must not be negative", ErrInvalidConfig)
	case c.EvidencePValueCutoff < 0 || c.EvidencePValueCutoff > 1:
		return fmt.Errorf("%w: evidence_p_value_cutoff must be within [0, 1]", ErrInvalidConfig)
	}
	switch c.BlobDriver {
	case "fs", "memory":
	case "s3":
		if strings.TrimSpace(c.BlobS3Bucket) == "" {
			return fmt.Errorf("%w: blob_s3_bucket is required for the s3 driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown blob_driver %q", ErrInvalidConfig, c.BlobDriver)
	}
	return nil
}
