package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/emeersman/design-for-iot/internal/broker"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

var ErrInvalidPayload = errors.New("invalid payload")

// Handler processes the payload of one message.
type Handler func(ctx context.Context, payload []byte) error

// EventLoop dispatches messages to handlers strictly one at a time, so
// handlers may share state without locking. Messages on topics without a
// handler are ignored.
type EventLoop struct {
	routes   map[string]Handler
	injected chan broker.Message
	l        *logger.Logger
}

func NewEventLoop(l *logger.Logger) *EventLoop {
	return &EventLoop{
		routes:   make(map[string]Handler),
		injected: make(chan broker.Message, 8),
		l:        l,
	}
}

// Handle registers h for topic. It must be called before Run.
func (e *EventLoop) Handle(topic string, h Handler) {
	e.routes[topic] = h
}

// Topics lists the registered topics.
func (e *EventLoop) Topics() []string {
	topics := make([]string, 0, len(e.routes))
	for topic := range e.routes {
		topics = append(topics, topic)
	}
	return topics
}

// Inject queues a locally generated message behind any message being
// processed.
func (e *EventLoop) Inject(ctx context.Context, msg broker.Message) error {
	select {
	case e.injected <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes messages until ctx is done or messages is closed.
func (e *EventLoop) Run(ctx context.Context, messages <-chan broker.Message) {
	e.l.Info("event loop started", map[string]any{"topics": e.Topics()})

	for {
		select {
		case <-ctx.Done():
			e.l.Info("event loop stopped")
			return
		case msg, ok := <-messages:
			if !ok {
				e.l.Info("message channel closed, event loop stopped")
				return
			}
			e.Dispatch(ctx, msg)
		case msg := <-e.injected:
			e.Dispatch(ctx, msg)
		}
	}
}

// Dispatch runs the handler for msg. Failures and panics are logged and
// the message is dropped.
func (e *EventLoop) Dispatch(ctx context.Context, msg broker.Message) {
	h, ok := e.routes[msg.Topic]
	if !ok {
		e.l.Debug("ignoring message on unrouted topic", map[string]any{"topic": msg.Topic})
		return
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.l.Error(fmt.Errorf("panic handling %s: %v", msg.Topic, r), map[string]any{
				"topic": msg.Topic,
				"trace": string(debug.Stack()),
			})
		}
	}()

	e.l.Info("handling message", map[string]any{
		"topic": msg.Topic,
		"bytes": len(msg.Payload),
	})

	if err := h(ctx, msg.Payload); err != nil {
		fields := map[string]any{
			"topic":    msg.Topic,
			"duration": time.Since(start).String(),
		}
		if errors.Is(err, ErrInvalidPayload) {
			fields["error"] = err.Error()
			fields["payload"] = string(msg.Payload)
			e.l.Warning("dropping malformed message", fields)
			return
		}
		e.l.Error(err, fields)
		return
	}

	e.l.Info("handled message", map[string]any{
		"topic":    msg.Topic,
		"duration": time.Since(start).String(),
	})
}

// decode unmarshals and validates a payload. Any failure wraps
// ErrInvalidPayload.
func decode[T any](validate *validator.Validate, payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}
