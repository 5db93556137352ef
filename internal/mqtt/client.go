// Package mqtt wraps paho.mqtt.golang with the small publish-only surface
// the daemon needs: connect with auto-reconnect, publish with a timeout,
// disconnect.
package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"fuelmon/internal/config"
)

const (
	// connectTimeout is the maximum wait for the initial connection.
	connectTimeout = 10 * time.Second

	// publishTimeout is the maximum wait for a publish acknowledgment.
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is the wait for in-flight messages on disconnect,
	// in milliseconds as paho wants it.
	disconnectQuiesce = 1000

	keepAlive = 60 * time.Second
)

// Sentinel errors.
var (
	ErrConnectionFailed = fmt.Errorf("mqtt: connection failed")
	ErrNotConnected     = fmt.Errorf("mqtt: not connected")
	ErrPublishFailed    = fmt.Errorf("mqtt: publish failed")
)

// Client is a connected MQTT publisher. Safe for concurrent use; paho
// serializes the underlying network writes.
type Client struct {
	client pahomqtt.Client
	qos    byte
}

// Connect dials the broker described by cfg and blocks until the
// connection is up or the timeout passes. Reconnection after a drop is
// handled by paho; publishes during an outage fail fast.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := buildClientOptions(cfg)

	c := &Client{client: pahomqtt.NewClient(opts), qos: byte(cfg.QoS)}
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return c, nil
}

// Publish sends payload to topic at the configured QoS. Retained is set so
// late subscribers immediately see the last battery state.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, c.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects after letting in-flight messages drain.
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesce)
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(keepAlive)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	return opts
}
