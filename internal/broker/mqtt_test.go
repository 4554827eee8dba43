package broker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	token      mqtt.Token
	published  []published
	subscribed []string
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.published = append(f.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return f.token
}

func (f *fakeClient) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	f.subscribed = append(f.subscribed, topic)
	return completedToken(nil)
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func newTestClient(fc *fakeClient) *Client {
	l := logger.NewZapLogger("test-app", io.Discard)
	c := NewClient(config.MQTTConfig{
		Host:           "localhost",
		Port:           1883,
		ClientIDPrefix: "test",
		ConnectTimeout: 50 * time.Millisecond,
	}, []string{"location", "weather/daily"}, l)
	c.client = fc
	return c
}

func TestClient_PublishRetained(t *testing.T) {
	fc := &fakeClient{token: completedToken(nil)}
	c := newTestClient(fc)

	require.NoError(t, c.Publish(context.Background(), "weather/history", []byte(`{"historical":[]}`), true))

	require.Len(t, fc.published, 1)
	assert.Equal(t, "weather/history", fc.published[0].topic)
	assert.True(t, fc.published[0].retained)
	assert.JSONEq(t, `{"historical":[]}`, string(fc.published[0].payload))
}

func TestClient_PublishError(t *testing.T) {
	fc := &fakeClient{token: completedToken(errors.New("not connected"))}
	c := newTestClient(fc)

	err := c.Publish(context.Background(), "weather/history", []byte(`{}`), true)
	assert.ErrorContains(t, err, "not connected")
}

func TestClient_PublishTimeout(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	c := newTestClient(fc)

	err := c.Publish(context.Background(), "weather/history", []byte(`{}`), true)
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestClient_PublishCancelled(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	c := newTestClient(fc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Publish(ctx, "weather/history", []byte(`{}`), true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_OnConnectSubscribesEveryTopic(t *testing.T) {
	fc := &fakeClient{}
	c := newTestClient(fc)

	c.onConnect(fc)

	assert.Equal(t, []string{"location", "weather/daily"}, fc.subscribed)
}

func TestClient_OnMessageCopiesPayload(t *testing.T) {
	fc := &fakeClient{}
	c := newTestClient(fc)

	payload := []byte(`{"city_name":"Seattle"}`)
	c.onMessage(fc, &fakeMessage{topic: "location", payload: payload})
	payload[2] = 'X'

	select {
	case msg := <-c.Messages():
		assert.Equal(t, "location", msg.Topic)
		assert.JSONEq(t, `{"city_name":"Seattle"}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestClient_OnMessageDropsWhenQueueFull(t *testing.T) {
	fc := &fakeClient{}
	c := newTestClient(fc)

	for i := 0; i < cap(c.messages); i++ {
		c.onMessage(fc, &fakeMessage{topic: "weather/daily", payload: []byte(`{}`)})
	}

	done := make(chan struct{})
	go func() {
		c.onMessage(fc, &fakeMessage{topic: "weather/query", payload: []byte(`{}`)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onMessage blocked on a full queue")
	}

	assert.Len(t, c.messages, cap(c.messages))
	for i := 0; i < cap(c.messages); i++ {
		assert.Equal(t, "weather/daily", (<-c.messages).Topic)
	}
}
