package vibestream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/okian/wildwatch/internal/adapters/vibestream"
	"github.com/okian/wildwatch/internal/domain/detection"
	"github.com/okian/wildwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const base = "https://vibestream.test"

func newClient(t *testing.T, opts ...vibestream.Option) *vibestream.Client {
	t.Helper()
	opts = append([]vibestream.Option{vibestream.WithBaseURL(base + "/"), vibestream.WithLogger(logger.Nop())}, opts...)
	c := vibestream.New(opts...)
	httpmock.ActivateNonDefault(c.HTTPClient())
	httpmock.Reset()
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

// capture records the decoded JSON body of the last request.
func capture(dst *map[string]any, status int, reply any) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		*dst = map[string]any{}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(dst)
		}
		return httpmock.NewJsonResponse(status, reply)
	}
}

func TestCheckOnce(t *testing.T) {
	Convey("Given a client", t, func() {
		c := newClient(t)
		ctx := context.Background()
		var sent map[string]any

		Convey("When the service answers", func() {
			frame := "aGk="
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once", capture(&sent, http.StatusOK,
				vibestream.CheckOnceResponse{Triggered: true, Explanation: "A lion.", Model: "gemini-2.5-flash", FrameB64: &frame}))

			resp, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "https://youtu.be/x", Condition: "animals?"})

			Convey("Then defaults are filled and the response decoded", func() {
				So(err, ShouldBeNil)
				So(resp.Triggered, ShouldBeTrue)
				So(resp.Frame(), ShouldEqual, frame)
				So(sent["youtube_url"], ShouldEqual, "https://youtu.be/x")
				So(sent["model"], ShouldEqual, vibestream.DefaultModel)
				So(sent["include_frame"], ShouldEqual, true)
				So(httpmock.GetTotalCallCount(), ShouldEqual, 1)
			})
		})

		Convey("When the frame is null", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once",
				httpmock.NewStringResponder(http.StatusOK, `{"triggered":false,"explanation":"empty","model":"m","frame_b64":null}`))

			resp, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then Frame is empty", func() {
				So(err, ShouldBeNil)
				So(resp.Frame(), ShouldEqual, "")
			})
		})

		Convey("When the service rejects the request", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once",
				httpmock.NewStringResponder(http.StatusUnprocessableEntity, "stream offline"))

			_, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then an APIError carries status and body", func() {
				var apiErr *vibestream.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
				So(err.Error(), ShouldEqual, "VibeStream API error: 422 - stream offline")
			})
		})

		Convey("When the error body is an HTML page", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once",
				httpmock.NewStringResponder(http.StatusBadGateway, "<html><body><h1>Bad Gateway</h1></body></html>"))

			_, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then the body is reduced to text", func() {
				var apiErr *vibestream.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Body, ShouldContainSubstring, "Bad Gateway")
				So(apiErr.Body, ShouldNotContainSubstring, "<h1>")
			})
		})

		Convey("When the transport fails", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once", httpmock.NewErrorResponder(errors.New("dial tcp: refused")))

			_, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then a request error is returned", func() {
				So(errors.Is(err, vibestream.ErrRequest), ShouldBeTrue)
			})
		})

		Convey("When the body is not JSON", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once", httpmock.NewStringResponder(http.StatusOK, "nope"))

			_, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then a decode error is returned", func() {
				So(errors.Is(err, vibestream.ErrDecode), ShouldBeTrue)
			})
		})

		Convey("When the body is empty", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/check-once", httpmock.NewStringResponder(http.StatusOK, ""))

			res, err := c.CheckOnce(ctx, vibestream.CheckOnceRequest{YouTubeURL: "u", Condition: "c"})

			Convey("Then a decode error is returned instead of a zero answer", func() {
				So(errors.Is(err, vibestream.ErrDecode), ShouldBeTrue)
				So(res.Explanation, ShouldBeEmpty)
			})
		})
	})
}

func TestWatchAndJobs(t *testing.T) {
	Convey("Given a client with a custom model", t, func() {
		c := newClient(t, vibestream.WithModel("gpt-4o"))
		ctx := context.Background()
		var sent map[string]any

		Convey("When a watch is started", func() {
			httpmock.RegisterResponder(http.MethodPost, base+"/watch", capture(&sent, http.StatusOK,
				vibestream.WatchResponse{JobID: "job-1", Status: "running"}))

			resp, err := c.StartWatch(ctx, vibestream.WatchRequest{YouTubeURL: "u", Condition: "c", WebhookURL: "https://me/hook"})

			Convey("Then interval and model defaults are sent", func() {
				So(err, ShouldBeNil)
				So(resp.JobID, ShouldEqual, "job-1")
				So(sent["interval_seconds"], ShouldEqual, float64(30))
				So(sent["model"], ShouldEqual, "gpt-4o")
				So(sent["webhook_url"], ShouldEqual, "https://me/hook")
			})
		})

		Convey("When jobs are listed", func() {
			httpmock.RegisterResponder(http.MethodGet, base+"/jobs",
				httpmock.NewStringResponder(http.StatusOK, `{"jobs":[{"id":"job-1","status":"running"}]}`))

			list, err := c.ListJobs(ctx)

			Convey("Then they are decoded", func() {
				So(err, ShouldBeNil)
				So(list.Jobs, ShouldHaveLength, 1)
				So(list.Jobs[0].Status, ShouldEqual, "running")
			})
		})

		Convey("When a job is cancelled", func() {
			httpmock.RegisterResponder(http.MethodDelete, base+"/jobs/job-1", httpmock.NewStringResponder(http.StatusNoContent, ""))

			Convey("Then the job path is called", func() {
				So(c.CancelJob(ctx, "job-1"), ShouldBeNil)
				So(httpmock.GetTotalCallCount(), ShouldEqual, 1)
			})

			Convey("And an empty id is rejected locally", func() {
				So(errors.Is(c.CancelJob(ctx, "  "), vibestream.ErrEmptyJob), ShouldBeTrue)
			})
		})

		Convey("When cancelling an unknown job", func() {
			httpmock.RegisterResponder(http.MethodDelete, base+"/jobs/missing", httpmock.NewStringResponder(http.StatusNotFound, "not found"))

			err := c.CancelJob(ctx, "missing")

			Convey("Then the status is surfaced", func() {
				var apiErr *vibestream.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAnalyze(t *testing.T) {
	Convey("Given a client used as an analyzer", t, func() {
		c := newClient(t)
		var sent map[string]any
		frame := "Zm9v"
		httpmock.RegisterResponder(http.MethodPost, base+"/check-once", capture(&sent, http.StatusOK,
			vibestream.CheckOnceResponse{Explanation: "Clearly a heron.", Model: "gemini-2.5-flash", FrameB64: &frame}))

		res, err := c.Analyze(context.Background(), detection.AnalyzeRequest{
			SourceURL: "https://youtu.be/h", Condition: detection.WildlifeCondition, Model: "gemini-2.5-flash",
		})

		Convey("Then the response maps onto an analysis", func() {
			So(err, ShouldBeNil)
			So(res.Explanation, ShouldEqual, "Clearly a heron.")
			So(res.Frame, ShouldEqual, frame)
			So(sent["condition"], ShouldEqual, detection.WildlifeCondition)
			So(sent["include_frame"], ShouldEqual, true)
		})
	})
}
