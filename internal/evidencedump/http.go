package evidencedump

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request bound to ctx.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// evidenceURL builds the stream URL of one accession with the configured cut-offs.
func evidenceURL(config *Config, accession string) string {
	q := url.Values{}
	if config.FoldChangeCutoff != "" {
		q.Set("logFoldChangeCutoff", config.FoldChangeCutoff)
	}
	if config.PValueCutoff != "" {
		q.Set("pValueCutoff", config.PValueCutoff)
	}
	if config.MaxGenesPerContrast != "" {
		q.Set("maxGenesPerContrast", config.MaxGenesPerContrast)
	}
	u := strings.TrimRight(config.BaseURL, "/") + "/json/experiments/" + url.PathEscape(accession) + "/evidence"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// streamEvidence calls line for every non-blank line of the accession's stream.
func streamEvidence(ctx context.Context, client *HTTPClient, config *Config, accession string, line func([]byte) error) error {
	resp, err := client.Get(ctx, evidenceURL(config, accession))
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, initialLineBuffer))
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, ndjsonContentType) {
		return fmt.Errorf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		if err := line(b); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream truncated: %w", err)
	}
	return nil
}
