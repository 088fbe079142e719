package api

import (
	"net/http"
	"strings"

	"github.com/okian/wildwatch/internal/adapters/vibestream"
	service "github.com/okian/wildwatch/internal/app"
	"github.com/okian/wildwatch/pkg/logger"
)

// WatchRequest is the POST /api/watch body. Empty fields take defaults.
type WatchRequest struct {
	YouTubeURL      string `json:"youtube_url"`
	Condition       string `json:"condition,omitempty"`
	WebhookURL      string `json:"webhook_url,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	Model           string `json:"model,omitempty"`
}

// WatchHandler manages continuous-monitoring jobs upstream.
type WatchHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(deps Dependencies, log logger.Logger) *WatchHandler {
	return &WatchHandler{deps: deps, log: log}
}

// HandleStart handles POST /api/watch requests.
func (h *WatchHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "watch"
	var req WatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.YouTubeURL) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, service.ErrInvalidWatch))
		return
	}
	if req.IntervalSeconds < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	resp, err := h.deps.StartWatch(r.Context(), service.WatchParams{
		SourceURL:       req.YouTubeURL,
		Condition:       req.Condition,
		WebhookURL:      req.WebhookURL,
		IntervalSeconds: req.IntervalSeconds,
		Model:           req.Model,
	})
	if err != nil {
		h.log.Error(r.Context(), "start watch", logger.String("url", req.YouTubeURL), logger.Error(err))
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /api/jobs requests.
func (h *WatchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.deps.Jobs(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "list jobs", logger.Error(err))
		status, code := statusFor(err)
		writeError(w, status, code, Wrap("jobs", err))
		return
	}
	if jobs.Jobs == nil {
		jobs.Jobs = []vibestream.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleCancel handles DELETE /api/jobs/{id} requests.
func (h *WatchHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.CancelJob(r.Context(), id); err != nil {
		h.log.Warn(r.Context(), "cancel job", logger.String("job_id", id), logger.Error(err))
		status, code := statusFor(err)
		writeError(w, status, code, Wrap("cancel", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
