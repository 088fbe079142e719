// Package mqtt publishes persisted detections to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

// Defaults for broker interaction.
const (
	DefaultTopic    = "wildwatch/detections"
	DefaultClientID = "wildwatch"

	connectTimeout    = 30 * time.Second
	publishTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // ms
)

// Sentinel kinds for publisher errors.
var (
	ErrNotConnected   = errors.New("not connected to MQTT broker")
	ErrConnectTimeout = errors.New("mqtt connection timeout")
	ErrPublishTimeout = errors.New("mqtt publish timeout")
)

// Publisher announces records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec model.DetectionRecord) error
	Close() error
}

// Settings configures the broker connection.
type Settings struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// Noop discards every record.
type Noop struct{}

// Publish drops rec.
func (Noop) Publish(context.Context, model.DetectionRecord) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }

// Client publishes records as JSON with QoS 0.
type Client struct {
	topic string
	log   logger.Logger

	mu     sync.Mutex
	client paho.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPahoClient replaces the underlying paho client.
func WithPahoClient(pc paho.Client) Option {
	return func(c *Client) {
		if pc != nil {
			c.client = pc
		}
	}
}

// New returns Noop when no broker is configured, otherwise a connected
// Client.
func New(ctx context.Context, s Settings, opts ...Option) (Publisher, error) {
	c := &Client{
		topic: s.Topic,
		log:   logger.Get().Named("mqtt"),
	}
	if c.topic == "" {
		c.topic = DefaultTopic
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		if s.Broker == "" {
			return Noop{}, nil
		}
		c.client = paho.NewClient(clientOptions(s, c.log))
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "connected to broker", logger.String("broker", s.Broker), logger.String("topic", c.topic))
	return c, nil
}

func clientOptions(s Settings, log logger.Logger) *paho.ClientOptions {
	clientID := s.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts := paho.NewClientOptions()
	opts.AddBroker(s.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(s.Username)
	opts.SetPassword(s.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn(context.Background(), "broker connection lost", logger.Error(err))
		metrics.RecordErrorByComponent("mqtt", "connection_lost")
	})
	return opts
}

func (c *Client) connect(ctx context.Context) error {
	if c.client.IsConnected() {
		return nil
	}
	token := c.client.Connect()
	if err := wait(ctx, token, connectTimeout, ErrConnectTimeout); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish sends rec to the configured topic.
func (c *Client) Publish(ctx context.Context, rec model.DetectionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		metrics.RecordPublish(metrics.ResultError)
		return fmt.Errorf("encode detection: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.client.IsConnected() {
		metrics.RecordPublish(metrics.ResultError)
		return ErrNotConnected
	}
	token := c.client.Publish(c.topic, 0, false, payload)
	if err := wait(ctx, token, publishTimeout, ErrPublishTimeout); err != nil {
		metrics.RecordPublish(metrics.ResultError)
		return fmt.Errorf("mqtt publish: %w", err)
	}
	metrics.RecordPublish(metrics.ResultOK)
	c.log.Debug(ctx, "published detection", logger.String("id", rec.ID), logger.String("topic", c.topic))
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client.IsConnected() {
		c.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration, timeoutErr error) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return timeoutErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
