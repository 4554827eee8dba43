package mqtt

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeersman/design-for-iot/internal/broker"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

func newTestLoop() (*EventLoop, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewEventLoop(logger.NewZapLogger("test-app", &buf)), &buf
}

func TestEventLoop_DispatchRoutesByTopic(t *testing.T) {
	loop, _ := newTestLoop()

	var got []string
	loop.Handle("a", func(_ context.Context, p []byte) error { got = append(got, "a:"+string(p)); return nil })
	loop.Handle("b", func(_ context.Context, p []byte) error { got = append(got, "b:"+string(p)); return nil })

	loop.Dispatch(context.Background(), broker.Message{Topic: "b", Payload: []byte("1")})
	loop.Dispatch(context.Background(), broker.Message{Topic: "unknown", Payload: []byte("2")})
	loop.Dispatch(context.Background(), broker.Message{Topic: "a", Payload: []byte("3")})

	assert.Equal(t, []string{"b:1", "a:3"}, got)
	assert.ElementsMatch(t, []string{"a", "b"}, loop.Topics())
}

func TestEventLoop_DispatchSurvivesPanicsAndErrors(t *testing.T) {
	loop, logs := newTestLoop()

	loop.Handle("panic", func(context.Context, []byte) error { panic("boom") })
	loop.Handle("fail", func(context.Context, []byte) error { return errors.New("remote down") })
	loop.Handle("bad", func(context.Context, []byte) error { return ErrInvalidPayload })

	assert.NotPanics(t, func() {
		loop.Dispatch(context.Background(), broker.Message{Topic: "panic"})
		loop.Dispatch(context.Background(), broker.Message{Topic: "fail"})
		loop.Dispatch(context.Background(), broker.Message{Topic: "bad", Payload: []byte("{")})
	})

	out := logs.String()
	assert.Contains(t, out, "panic handling panic: boom")
	assert.Contains(t, out, "remote down")
	assert.Contains(t, out, "dropping malformed message")
}

func TestEventLoop_RunProcessesSequentially(t *testing.T) {
	loop, _ := newTestLoop()

	var (
		active, maxActive int
		order             []string
	)
	loop.Handle("t", func(_ context.Context, p []byte) error {
		active++
		if active > maxActive {
			maxActive = active
		}
		time.Sleep(time.Millisecond)
		order = append(order, string(p))
		active--
		return nil
	})

	messages := make(chan broker.Message, 5)
	for _, p := range []string{"1", "2", "3", "4", "5"} {
		messages <- broker.Message{Topic: "t", Payload: []byte(p)}
	}
	close(messages)

	loop.Run(context.Background(), messages)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, order)
	assert.Equal(t, 1, maxActive)
}

func TestEventLoop_InjectAndStop(t *testing.T) {
	loop, _ := newTestLoop()

	handled := make(chan string, 1)
	loop.Handle("weather/query", func(context.Context, []byte) error {
		handled <- "query"
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx, make(chan broker.Message))
		close(done)
	}()

	require.NoError(t, loop.Inject(ctx, broker.Message{Topic: "weather/query"}))

	select {
	case got := <-handled:
		assert.Equal(t, "query", got)
	case <-time.After(time.Second):
		t.Fatal("injected message not handled")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event loop did not stop")
	}
}

type payloadFixture struct {
	Name string `json:"name" validate:"required"`
}

func TestDecode(t *testing.T) {
	validate := validator.New()

	v, err := decode[payloadFixture](validate, []byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", v.Name)

	_, err = decode[payloadFixture](validate, []byte(`{"name":""}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = decode[payloadFixture](validate, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
