package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/wildwatch/internal/app"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

// WebhookPayload is one result posted by a VibeStream watch job.
type WebhookPayload struct {
	EventID     string  `json:"event_id,omitempty"`
	JobID       string  `json:"job_id,omitempty"`
	YouTubeURL  string  `json:"youtube_url,omitempty"`
	Triggered   bool    `json:"triggered"`
	Explanation string  `json:"explanation"`
	Model       string  `json:"model"`
	FrameB64    *string `json:"frame_b64,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// DeliveryID is event_id, else job_id:timestamp, else a random UUID.
func (p *WebhookPayload) DeliveryID() string {
	switch {
	case p.EventID != "":
		return p.EventID
	case p.JobID != "" && p.Timestamp != "":
		return p.JobID + ":" + p.Timestamp
	default:
		return uuid.NewString()
	}
}

// WebhookResponse acknowledges a delivery.
type WebhookResponse struct {
	Status     string `json:"status"`
	DeliveryID string `json:"delivery_id"`
}

// WebhookHandler receives watch-job results and queues them for ingestion.
type WebhookHandler struct {
	deps Dependencies
	log  logger.Logger
	now  func() time.Time
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(deps Dependencies, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{deps: deps, log: log, now: time.Now}
}

// HandleDelivery handles POST /api/webhooks/vibestream requests.
func (h *WebhookHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	const op = "webhook"
	var p WebhookPayload
	if err := decodeJSON(w, r, &p); err != nil {
		metrics.RecordWebhookDelivery(metrics.ResultInvalid)
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	e := model.WatchEvent{
		DeliveryID:  p.DeliveryID(),
		JobID:       p.JobID,
		SourceURL:   p.YouTubeURL,
		Triggered:   p.Triggered,
		Explanation: p.Explanation,
		Model:       p.Model,
		ReceivedAt:  h.now(),
	}
	if p.FrameB64 != nil {
		e.Frame = *p.FrameB64
	}
	if p.Timestamp != "" {
		if at, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
			e.ScannedAt = at
		} else {
			h.log.Debug(r.Context(), "webhook timestamp ignored", logger.String("timestamp", p.Timestamp))
		}
	}

	duplicate, err := h.deps.Deliver(r.Context(), e)
	switch {
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case err != nil:
		h.log.Error(r.Context(), "webhook delivery", logger.String("delivery_id", e.DeliveryID), logger.Error(err))
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	case duplicate:
		writeJSON(w, http.StatusOK, WebhookResponse{Status: "duplicate", DeliveryID: e.DeliveryID})
		return
	}
	writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "accepted", DeliveryID: e.DeliveryID})
}
