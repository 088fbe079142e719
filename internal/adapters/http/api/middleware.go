package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/wildwatch/pkg/metrics"
)

// MetricsMiddleware records request count, duration and error class for
// the route registered as endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ms := float64(time.Since(start).Milliseconds())
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, ms)

		if class, severity, failed := classifyStatus(rec.status); failed {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
			metrics.RecordErrorByType(class, severity)
		}
	}
}

// classifyStatus maps an HTTP status to an error class and severity label.
func classifyStatus(status int) (class, severity string, failed bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status == http.StatusTooManyRequests:
		return "rate_limit", "medium", true
	case status == http.StatusNotFound:
		return "not_found", "medium", true
	case status == http.StatusBadGateway:
		return "upstream_error", "high", true
	case status == http.StatusServiceUnavailable:
		return "unavailable", "high", true
	case status >= http.StatusInternalServerError:
		return "server_error", "high", true
	default:
		return "client_error", "medium", true
	}
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
