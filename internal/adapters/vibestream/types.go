package vibestream

// CheckOnceRequest asks for a single-frame analysis.
type CheckOnceRequest struct {
	YouTubeURL   string `json:"youtube_url"`
	Condition    string `json:"condition"`
	Model        string `json:"model,omitempty"`
	IncludeFrame *bool  `json:"include_frame,omitempty"`
}

// CheckOnceResponse is the analysis of one captured frame.
type CheckOnceResponse struct {
	Triggered   bool    `json:"triggered"`
	Explanation string  `json:"explanation"`
	Model       string  `json:"model"`
	FrameB64    *string `json:"frame_b64"`
}

// Frame returns the captured frame or "".
func (r CheckOnceResponse) Frame() string {
	if r.FrameB64 == nil {
		return ""
	}
	return *r.FrameB64
}

// WatchRequest starts continuous monitoring with webhook delivery.
type WatchRequest struct {
	YouTubeURL      string `json:"youtube_url"`
	Condition       string `json:"condition"`
	WebhookURL      string `json:"webhook_url"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	Model           string `json:"model,omitempty"`
}

// WatchResponse acknowledges a started job.
type WatchResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Job is one monitoring job known upstream.
type Job struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	Condition  string `json:"condition,omitempty"`
}

// JobList is the GET /jobs payload.
type JobList struct {
	Jobs []Job `json:"jobs"`
}
