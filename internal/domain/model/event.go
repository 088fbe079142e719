package model

import "time"

// WatchEvent is one analysis result delivered by a continuous-monitoring
// job through the webhook endpoint.
type WatchEvent struct {
	DeliveryID  string    // idempotency key
	JobID       string    // upstream job that produced the result
	SourceURL   string    // livestream URL, may be empty
	Triggered   bool      // upstream condition met
	Explanation string    // free-text analysis
	Model       string    // model identifier
	Frame       string    // base64 frame, may be empty
	ScannedAt   time.Time // upstream analysis time, zero if absent or unparsable
	ReceivedAt  time.Time // when the webhook arrived
}
