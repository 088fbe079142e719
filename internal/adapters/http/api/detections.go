package api

import (
	"net/http"

	"github.com/okian/wildwatch/pkg/logger"
)

// DetectionsHandler serves history, aggregate counts and the vocabulary.
type DetectionsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewDetectionsHandler creates a new detections handler.
func NewDetectionsHandler(deps Dependencies, log logger.Logger) *DetectionsHandler {
	return &DetectionsHandler{deps: deps, log: log}
}

// HandleList handles GET /api/detections requests.
func (h *DetectionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Detections(r.Context()))
}

// HandleClear handles DELETE /api/detections requests.
func (h *DetectionsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearDetections(r.Context()); err != nil {
		h.log.Error(r.Context(), "clear detections", logger.Error(err))
		status, code := statusFor(err)
		writeError(w, status, code, Wrap("clear", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /api/stats requests.
func (h *DetectionsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Stats(r.Context()))
}

// HandleVocabulary handles GET /api/vocabulary requests.
func (h *DetectionsHandler) HandleVocabulary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Vocabulary())
}
