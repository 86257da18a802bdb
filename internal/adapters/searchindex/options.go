package searchindex

import (
	"net/http"
	"time"

	"github.com/okian/gxa/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCollections names the bulk and differential analytics collections.
// Empty names keep the defaults.
func WithCollections(bulk, differential string) Option {
	return func(c *Client) {
		if bulk != "" {
			c.bulk = bulk
		}
		if differential != "" {
			c.differential = differential
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
