package detection

import "errors"

// Sentinel kinds for scan errors.
var (
	// ErrInvalidURL means the caller supplied no livestream URL.
	ErrInvalidURL = errors.New("youtube_url is required")
	// ErrScanFailed wraps upstream analysis failures.
	ErrScanFailed = errors.New("scan failed")
)
