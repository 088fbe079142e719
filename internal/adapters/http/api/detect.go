package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/wildwatch/internal/domain/detection"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
)

// DetectRequest is the POST /api/detect body.
type DetectRequest struct {
	YouTubeURL string `json:"youtube_url"`
}

// DetectResponse is the POST /api/detect success body.
type DetectResponse struct {
	Success     bool                  `json:"success"`
	ID          string                `json:"id"`
	Triggered   bool                  `json:"triggered"`
	Explanation string                `json:"explanation"`
	Animals     []model.AnimalSighting `json:"animals"`
	FrameB64    *string               `json:"frame_b64"`
	Model       string                `json:"model"`
	Timestamp   time.Time             `json:"timestamp"`
}

func newDetectResponse(rec model.DetectionRecord) DetectResponse { //nolint:gocritic // hugeParam: read-only copy
	resp := DetectResponse{
		Success:     true,
		ID:          rec.ID,
		Triggered:   rec.Triggered,
		Explanation: rec.Explanation,
		Animals:     rec.Sightings,
		Model:       rec.Model,
		Timestamp:   rec.Timestamp,
	}
	if rec.Frame != "" {
		frame := rec.Frame
		resp.FrameB64 = &frame
	}
	if resp.Animals == nil {
		resp.Animals = []model.AnimalSighting{}
	}
	return resp
}

// DetectHandler runs one-shot scans.
type DetectHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(deps Dependencies, log logger.Logger) *DetectHandler {
	return &DetectHandler{deps: deps, log: log}
}

// HandleDetect handles POST /api/detect requests.
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	const op = "detect"
	var req DetectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, detection.ErrInvalidURL))
		return
	}
	if strings.TrimSpace(req.YouTubeURL) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, detection.ErrInvalidURL))
		return
	}

	rec, err := h.deps.RunScan(r.Context(), req.YouTubeURL)
	if err != nil {
		if errors.Is(err, detection.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, detection.ErrInvalidURL))
			return
		}
		h.log.Error(r.Context(), "detection error", logger.String("url", req.YouTubeURL), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "scan_failed", WrapKind(op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, newDetectResponse(rec))
}
