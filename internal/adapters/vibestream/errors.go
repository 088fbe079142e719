package vibestream

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrRequest  = errors.New("vibestream request failed")
	ErrDecode   = errors.New("vibestream response could not be decoded")
	ErrEmptyJob = errors.New("job id is required")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Body       string
}

// Error keeps the upstream status and body verbatim.
func (e *APIError) Error() string {
	return fmt.Sprintf("VibeStream API error: %d - %s", e.StatusCode, e.Body)
}
