package repository

import (
	"strings"

	"github.com/okian/gxa/pkg/logger"
)

// DefaultCatalogPrefix is where experiment documents live in the blob store.
const DefaultCatalogPrefix = "catalog"

// Option applies a configuration option to the BlobCatalog.
type Option func(*BlobCatalog)

// WithPrefix sets the key prefix of experiment documents.
func WithPrefix(prefix string) Option {
	return func(c *BlobCatalog) {
		if p := strings.Trim(prefix, "/"); p != "" {
			c.prefix = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *BlobCatalog) {
		if l != nil {
			c.log = l
		}
	}
}
