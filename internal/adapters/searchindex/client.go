// Package searchindex queries the Solr analytics collections: bulk for
// baseline expression levels and differential for fold changes.
package searchindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"
	"github.com/tidwall/gjson"
)

const (
	DefaultBulkCollection         = "bulk-analytics"
	DefaultDifferentialCollection = "bulk-analytics"
	DefaultTimeout                = 10 * time.Second
	// rows requested when the caller sets no limit
	defaultUnlimitedRows = 100000
)

// Client is a Solr select client. It is safe for concurrent use.
type Client struct {
	base         string
	http         *http.Client
	bulk         string
	differential string
	log          logger.Logger
}

// New returns a client for the Solr instance at baseURL, e.g. http://solr:8983.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingURL, err)
	}
	c := &Client{
		base:         strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: DefaultTimeout},
		bulk:         DefaultBulkCollection,
		differential: DefaultDifferentialCollection,
		log:          logger.Get().Named("searchindex"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// selectDocs runs one /select request and returns the parsed body.
func (c *Client) selectDocs(ctx context.Context, collection string, params url.Values) (gjson.Result, error) {
	params.Set("wt", "json")
	endpoint := c.base + "/solr/" + url.PathEscape(collection) + "/select"

	start := time.Now()
	body, err := c.post(ctx, endpoint, params)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrUnreachable) {
			outcome = "unreachable"
		}
		metrics.RecordIndexQuery(collection, outcome, latency)
		c.log.Warn(ctx, "index query failed",
			logger.String("collection", collection),
			logger.String("q", params.Get("q")),
			logger.Error(err))
		return gjson.Result{}, err
	}
	metrics.RecordIndexQuery(collection, "ok", latency)
	return body, nil
}

func (c *Client) post(ctx context.Context, endpoint string, params url.Values) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read body: %v", ErrQueryFailed, err)
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, fmt.Errorf("%w: %s returned non-JSON body", ErrQueryFailed, resp.Status)
	}
	res := gjson.ParseBytes(b)
	if resp.StatusCode != http.StatusOK {
		msg := res.Get("error.msg").String()
		if msg == "" {
			msg = resp.Status
		}
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrQueryFailed, msg)
	}
	return res, nil
}

func rowsOrDefault(n int) string {
	if n <= 0 {
		n = defaultUnlimitedRows
	}
	return fmt.Sprintf("%d", n)
}
