// Package ctl implements the wildwatchctl operator commands.
package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/wildwatch/internal/adapters/http/api"
	"github.com/okian/wildwatch/internal/adapters/vibestream"
	"github.com/okian/wildwatch/internal/domain/model"
)

// Sentinel kinds for API client errors.
var (
	// ErrStatus is wrapped by every StatusError.
	ErrStatus = errors.New("unexpected status")
	// ErrDecode marks a 2xx answer whose body is not the expected JSON.
	ErrDecode = errors.New("response could not be decoded")
)

// StatusError is a non-2xx answer from the wildwatch API.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error renders the status code and server message.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%v %d: %s", ErrStatus, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error { return ErrStatus }

// Client talks to a running wildwatch server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Detect runs a one-shot scan.
func (c *Client) Detect(ctx context.Context, sourceURL string) (api.DetectResponse, error) {
	var out api.DetectResponse
	err := c.do(ctx, http.MethodPost, "/api/detect", api.DetectRequest{YouTubeURL: sourceURL}, &out)
	return out, err
}

// Detections lists stored records, newest first.
func (c *Client) Detections(ctx context.Context) ([]model.DetectionRecord, error) {
	var out []model.DetectionRecord
	err := c.do(ctx, http.MethodGet, "/api/detections", nil, &out)
	return out, err
}

// Stats returns aggregate counts.
func (c *Client) Stats(ctx context.Context) (model.StatsSnapshot, error) {
	var out model.StatsSnapshot
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// Clear removes all stored records.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/detections", nil, nil)
}

// Watch starts a monitoring job.
func (c *Client) Watch(ctx context.Context, req api.WatchRequest) (vibestream.WatchResponse, error) {
	var out vibestream.WatchResponse
	err := c.do(ctx, http.MethodPost, "/api/watch", req, &out)
	return out, err
}

// Jobs lists monitoring jobs.
func (c *Client) Jobs(ctx context.Context) (vibestream.JobList, error) {
	var out vibestream.JobList
	err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &out)
	return out, err
}

// Cancel stops a monitoring job.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/jobs/"+url.PathEscape(id), nil, nil)
}

// Deliver posts one webhook payload and returns the acknowledgement.
func (c *Client) Deliver(ctx context.Context, p *api.WebhookPayload) (api.WebhookResponse, error) {
	var out api.WebhookResponse
	err := c.do(ctx, http.MethodPost, "/api/webhooks/vibestream", p, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
