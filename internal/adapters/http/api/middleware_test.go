package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyStatus(t *testing.T) {
	Convey("Given response statuses", t, func() {
		cases := []struct {
			status   int
			class    string
			severity string
			failed   bool
		}{
			{http.StatusOK, "", "", false},
			{http.StatusAccepted, "", "", false},
			{http.StatusBadRequest, "client_error", "medium", true},
			{http.StatusNotFound, "not_found", "medium", true},
			{http.StatusTooManyRequests, "rate_limit", "medium", true},
			{http.StatusInternalServerError, "server_error", "high", true},
			{http.StatusBadGateway, "upstream_error", "high", true},
			{http.StatusServiceUnavailable, "unavailable", "high", true},
		}
		for _, c := range cases {
			class, severity, failed := classifyStatus(c.status)
			So(class, ShouldEqual, c.class)
			So(severity, ShouldEqual, c.severity)
			So(failed, ShouldEqual, c.failed)
		}
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler that writes twice", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		Convey("Then the first status wins", func() {
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(w.Body.String(), ShouldEqual, "short and stout")
		})
	})
}
