package mqtt_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/okian/wildwatch/internal/adapters/mqtt"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeClient struct {
	paho.Client

	mu          sync.Mutex
	connected   bool
	connectErr  error
	publishErr  error
	topics      []string
	payloads    [][]byte
	disconnects int
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Connect() paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = f.connectErr == nil
	return doneToken{err: f.connectErr}
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload any) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	return doneToken{err: f.publishErr}
}

func TestNew(t *testing.T) {
	Convey("Given no broker", t, func() {
		p, err := mqtt.New(context.Background(), mqtt.Settings{})

		Convey("Then a no-op publisher is returned", func() {
			So(err, ShouldBeNil)
			So(p, ShouldHaveSameTypeAs, mqtt.Noop{})
			So(p.Publish(context.Background(), model.DetectionRecord{}), ShouldBeNil)
			So(p.Close(), ShouldBeNil)
		})
	})

	Convey("Given a broker that refuses the connection", t, func() {
		fc := &fakeClient{connectErr: errors.New("refused")}
		_, err := mqtt.New(context.Background(), mqtt.Settings{Broker: "tcp://localhost:1883"},
			mqtt.WithPahoClient(fc), mqtt.WithLogger(logger.Nop()))

		Convey("Then New fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "refused")
		})
	})
}

func TestPublish(t *testing.T) {
	Convey("Given a connected publisher", t, func() {
		ctx := context.Background()
		fc := &fakeClient{}
		p, err := mqtt.New(ctx, mqtt.Settings{Broker: "tcp://localhost:1883"},
			mqtt.WithPahoClient(fc), mqtt.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)

		Convey("When a record is published", func() {
			rec := model.DetectionRecord{ID: "det_1", Sightings: []model.AnimalSighting{{Name: "Owl", Confidence: model.ConfidenceLow}}}
			So(p.Publish(ctx, rec), ShouldBeNil)

			Convey("Then it goes to the default topic as JSON", func() {
				So(fc.topics, ShouldResemble, []string{mqtt.DefaultTopic})
				var got model.DetectionRecord
				So(json.Unmarshal(fc.payloads[0], &got), ShouldBeNil)
				So(got.ID, ShouldEqual, "det_1")
				So(got.Sightings[0].Name, ShouldEqual, "Owl")
			})
		})

		Convey("When the broker rejects the publish", func() {
			fc.publishErr = errors.New("quota")

			Convey("Then the error is returned", func() {
				So(p.Publish(ctx, model.DetectionRecord{ID: "x"}), ShouldNotBeNil)
			})
		})

		Convey("When the connection is gone", func() {
			So(p.Close(), ShouldBeNil)

			Convey("Then publish reports not connected", func() {
				So(errors.Is(p.Publish(ctx, model.DetectionRecord{}), mqtt.ErrNotConnected), ShouldBeTrue)
				So(fc.disconnects, ShouldEqual, 1)
			})
		})
	})
}
