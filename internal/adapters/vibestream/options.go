package vibestream

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/wildwatch/pkg/logger"
)

// Defaults for the hosted service.
const (
	DefaultBaseURL         = "https://vibestream.machinefi.com"
	DefaultModel           = "gemini-2.5-flash"
	DefaultTimeout         = 60 * time.Second
	DefaultIntervalSeconds = 30
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the service root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel sets the model used when a request leaves it empty.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
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

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
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
