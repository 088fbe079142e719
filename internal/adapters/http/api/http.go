// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/wildwatch/internal/adapters/vibestream"
	service "github.com/okian/wildwatch/internal/app"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RunScan(ctx context.Context, sourceURL string) (model.DetectionRecord, error)
	Detections(ctx context.Context) []model.DetectionRecord
	ClearDetections(ctx context.Context) error
	Stats(ctx context.Context) model.StatsSnapshot
	Vocabulary() []string

	StartWatch(ctx context.Context, p service.WatchParams) (vibestream.WatchResponse, error)
	Jobs(ctx context.Context) (vibestream.JobList, error)
	CancelJob(ctx context.Context, id string) error

	// Deliver queues a webhook delivery; duplicate reports a redelivery.
	Deliver(ctx context.Context, e model.WatchEvent) (duplicate bool, err error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	detectHandler     *DetectHandler
	detectionsHandler *DetectionsHandler
	watchHandler      *WatchHandler
	webhookHandler    *WebhookHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		detectHandler:     NewDetectHandler(deps, log),
		detectionsHandler: NewDetectionsHandler(deps, log),
		watchHandler:      NewWatchHandler(deps, log),
		webhookHandler:    NewWebhookHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /api/detect", MetricsMiddleware(s.detectHandler.HandleDetect, "detect"))
	mux.HandleFunc("GET /api/detections", MetricsMiddleware(s.detectionsHandler.HandleList, "detections"))
	mux.HandleFunc("DELETE /api/detections", MetricsMiddleware(s.detectionsHandler.HandleClear, "detections"))
	mux.HandleFunc("GET /api/stats", MetricsMiddleware(s.detectionsHandler.HandleStats, "detection_stats"))
	mux.HandleFunc("GET /api/vocabulary", MetricsMiddleware(s.detectionsHandler.HandleVocabulary, "vocabulary"))

	mux.HandleFunc("POST /api/watch", MetricsMiddleware(s.watchHandler.HandleStart, "watch"))
	mux.HandleFunc("GET /api/jobs", MetricsMiddleware(s.watchHandler.HandleList, "jobs"))
	mux.HandleFunc("DELETE /api/jobs/{id}", MetricsMiddleware(s.watchHandler.HandleCancel, "jobs"))

	mux.HandleFunc("POST /api/webhooks/vibestream", MetricsMiddleware(s.webhookHandler.HandleDelivery, "webhook"))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
		var oe *opError
		if errors.As(err, &oe) {
			msg = oe.message()
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps service and upstream errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	var apiErr *vibestream.APIError
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, vibestream.ErrEmptyJob), errors.Is(err, service.ErrInvalidWatch):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound, "not_found"
	case errors.As(err, &apiErr), errors.Is(err, vibestream.ErrRequest), errors.Is(err, vibestream.ErrDecode):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
