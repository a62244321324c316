// Package messaging connects the vision fusion service to an MQTT broker: camera values arrive
// on it, and pipeline selections, diagnostics and pose measurements leave through it.
package messaging

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/robotloc/visionfusion/logging"
)

// A Handler receives one message.
type Handler func(topic string, payload []byte)

// A Transport publishes and subscribes to topics. Subscribe filters may use the MQTT + and #
// wildcards.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(filter string, handler Handler) error
}

// DefaultPublishTimeout bounds how long Publish waits for the broker.
const DefaultPublishTimeout = 100 * time.Millisecond

// Options configures a Client.
type Options struct {
	Broker         string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
	// PublishTimeout bounds Publish. A message that times out may still be delivered once the
	// connection recovers.
	PublishTimeout time.Duration
}

// Client is a Transport over a paho MQTT connection. It reconnects on its own after a
// connection loss and restores its subscriptions when it does.
type Client struct {
	mu     sync.RWMutex
	opts   Options
	conn   mqtt.Client
	subs   map[string]Handler
	logger logging.Logger
}

// NewClient returns an unconnected client. An empty client id is replaced by a random one.
func NewClient(opts Options, logger logging.Logger) *Client {
	if opts.ClientID == "" {
		opts.ClientID = "visionfusion-" + uuid.NewString()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Client{opts: opts, subs: map[string]Handler{}, logger: logger}
}

// Connect dials the broker, giving up when ctx is done or the connect timeout passes.
func (c *Client) Connect(ctx context.Context) error {
	mqttOpts := mqtt.NewClientOptions().
		AddBroker(c.opts.Broker).
		SetClientID(c.opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.logger.Warnw("mqtt connection lost", "broker", c.opts.Broker, "error", err)
		})

	conn := mqtt.NewClient(mqttOpts)
	token := conn.Connect()

	timer := time.NewTimer(c.opts.ConnectTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		conn.Disconnect(0)
		return ctx.Err()
	case <-timer.C:
		conn.Disconnect(0)
		return errors.Errorf("timed out connecting to %s", c.opts.Broker)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "mqtt connect to %s", c.opts.Broker)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Infow("connected to mqtt broker", "broker", c.opts.Broker, "client_id", c.opts.ClientID)
	return nil
}

// onConnect restores subscriptions after a reconnect.
func (c *Client) onConnect(conn mqtt.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for filter, handler := range c.subs {
		if err := c.subscribe(conn, filter, handler); err != nil {
			c.logger.Warnw("failed to resubscribe", "filter", filter, "error", err)
		}
	}
}

func (c *Client) subscribe(conn mqtt.Client, filter string, handler Handler) error {
	token := conn.Subscribe(filter, c.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Publish sends a message without retaining it. It never blocks longer than the publish
// timeout, even while the client is reconnecting.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return errors.New("mqtt not connected")
	}
	token := conn.Publish(topic, c.opts.QoS, false, payload)
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		return errors.Errorf("publish %s timed out after %v", topic, c.opts.PublishTimeout)
	}
	return token.Error()
}

// Subscribe registers handler for every topic matching filter.
func (c *Client) Subscribe(filter string, handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("mqtt not connected")
	}
	if err := c.subscribe(c.conn, filter, handler); err != nil {
		return errors.Wrapf(err, "subscribe %s", filter)
	}
	c.subs[filter] = handler
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Disconnect(250)
		c.conn = nil
	}
}
