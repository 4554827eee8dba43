// Package broker connects to the MQTT broker the ESP8266 devices talk to.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Message is one inbound broker message.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher sends payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
}

// Client is a paho client that delivers every subscribed message to one
// channel, so a single consumer processes messages in arrival order.
type Client struct {
	client   mqtt.Client
	qos      byte
	timeout  time.Duration
	topics   []string
	messages chan Message
	l        *logger.Logger
}

// NewClient builds a client with a unique client id. topics are
// (re)subscribed on every successful connection.
func NewClient(cfg config.MQTTConfig, topics []string, l *logger.Logger) *Client {
	c := &Client{
		qos:      cfg.QoS,
		timeout:  cfg.ConnectTimeout,
		topics:   topics,
		messages: make(chan Message, 64),
		l:        l,
	}

	mqtt.ERROR = l
	mqtt.CRITICAL = l

	clientID := fmt.Sprintf("%s-%s", cfg.ClientIDPrefix, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			l.Error(fmt.Errorf("mqtt connection lost: %w", err))
		})

	c.client = mqtt.NewClient(opts)

	l.Info("mqtt client configured", map[string]any{
		"broker":    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"client_id": clientID,
		"topics":    topics,
	})

	return c
}

// Connect dials the broker and waits at most the configured timeout.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("mqtt connect timed out after %s", c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	return nil
}

func (c *Client) onConnect(client mqtt.Client) {
	c.l.Info("connected to mqtt broker", map[string]any{"topics": c.topics})

	for _, topic := range c.topics {
		token := client.Subscribe(topic, c.qos, c.onMessage)
		if !token.WaitTimeout(c.timeout) {
			c.l.Error(fmt.Errorf("mqtt subscribe to %s timed out", topic))
			continue
		}
		if err := token.Error(); err != nil {
			c.l.Error(fmt.Errorf("mqtt subscribe to %s failed: %w", topic, err))
		}
	}
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case c.messages <- Message{Topic: msg.Topic(), Payload: payload}:
	default:
		c.l.Warning("inbound queue full, dropping message", map[string]any{
			"topic": msg.Topic(),
			"size":  len(payload),
		})
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Messages returns the channel every subscribed message is delivered to.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, c.qos, retained, payload)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s failed: %w", topic, err)
	}

	c.l.Debug("published message", map[string]any{
		"topic":    topic,
		"retained": retained,
		"bytes":    len(payload),
	})

	return nil
}

// Disconnect waits up to 250ms for in-flight work before closing.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.l.Info("disconnected from mqtt broker")
}
