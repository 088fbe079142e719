// Package vibestream is a client for the VibeStream livestream analysis
// service.
package vibestream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/k3a/html2text"

	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

const maxErrorBody = 4 << 10

// Client talks to one VibeStream deployment. It never retries.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     logger.Logger
}

// New builds a client for the hosted service unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logger.Get().Named("vibestream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the underlying client, mainly for transport mocks.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Model is the default model identifier.
func (c *Client) Model() string { return c.model }

// CheckOnce captures and analyses one frame. IncludeFrame defaults to true.
func (c *Client) CheckOnce(ctx context.Context, req CheckOnceRequest) (CheckOnceResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.IncludeFrame == nil {
		yes := true
		req.IncludeFrame = &yes
	}
	var out CheckOnceResponse
	err := c.do(ctx, "check-once", http.MethodPost, "/check-once", req, &out)
	return out, err
}

// StartWatch starts a monitoring job that posts results to req.WebhookURL.
func (c *Client) StartWatch(ctx context.Context, req WatchRequest) (WatchResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.IntervalSeconds <= 0 {
		req.IntervalSeconds = DefaultIntervalSeconds
	}
	var out WatchResponse
	err := c.do(ctx, "watch", http.MethodPost, "/watch", req, &out)
	return out, err
}

// ListJobs returns the active monitoring jobs.
func (c *Client) ListJobs(ctx context.Context) (JobList, error) {
	var out JobList
	if err := c.do(ctx, "jobs", http.MethodGet, "/jobs", nil, &out); err != nil {
		return JobList{}, err
	}
	if out.Jobs == nil {
		out.Jobs = []Job{}
	}
	return out, nil
}

// CancelJob stops a monitoring job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyJob
	}
	return c.do(ctx, "cancel", http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", ErrRequest, endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequest, endpoint, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "transport_error", latency)
		c.log.Warn(ctx, "upstream request failed", logger.String("endpoint", endpoint), logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrRequest, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: errorText(resp.Header.Get("Content-Type"), raw)}
		c.log.Warn(ctx, "upstream returned an error",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// an empty 2xx body is malformed, not a zero-valued answer
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}

// errorText reduces HTML error pages to plain text.
func errorText(contentType string, raw []byte) string {
	s := string(raw)
	if strings.Contains(strings.ToLower(contentType), "html") || strings.HasPrefix(strings.TrimSpace(s), "<") {
		s = html2text.HTML2Text(s)
	}
	return strings.TrimSpace(s)
}
