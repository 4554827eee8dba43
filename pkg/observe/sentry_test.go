package observe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeersman/design-for-iot/pkg/logger"
)

func newTestHook(zone string) (*SentryHook, *[]*sentry.Event) {
	var captured []*sentry.Event
	return &SentryHook{
		appZone: zone,
		appName: "weather-bot",
		capture: func(e *sentry.Event) *sentry.EventID {
			captured = append(captured, e)
			return nil
		},
	}, &captured
}

func TestSentryHook_ForwardsErrors(t *testing.T) {
	hook, captured := newTestHook("prod")
	l := logger.NewZapLogger("weather-bot", hook).WithZone("prod").Named("orchestrator")

	l.Info("handled message")
	l.Warning("dropping malformed message")
	l.Error(errors.New("failed to post plot: twitter down"), map[string]any{"location": "Seattle"})

	require.Len(t, *captured, 1)
	event := (*captured)[0]
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "prod", event.Environment)
	assert.Equal(t, "failed to post plot: twitter down", event.Message)
	assert.Equal(t, "weather-bot", event.Extra["AppName"])
	assert.Equal(t, "failed to post plot: twitter down", event.Extra["Error"])
	assert.Equal(t, "orchestrator", event.Tags["component"])
	assert.Equal(t, "Seattle", event.Tags["location"])
	assert.NotContains(t, event.Tags, "topic")
	require.Len(t, event.Exception, 1)
	assert.False(t, event.Timestamp.IsZero())
}

func TestSentryHook_LocalZoneIsSilent(t *testing.T) {
	hook, captured := newTestHook("local")
	l := logger.NewZapLogger("weather-bot", hook)

	l.Error(errors.New("boom"))

	assert.Empty(t, *captured)
}

func TestSentryHook_ReportsUnparseableLines(t *testing.T) {
	hook, captured := newTestHook("dev")

	var buf bytes.Buffer
	hook.SetLogger(logger.NewZapLogger("weather-bot", &buf))

	n, err := hook.Write([]byte("not json"))
	assert.NoError(t, err)
	assert.Equal(t, len("not json"), n)
	assert.Empty(t, *captured)
	assert.Contains(t, buf.String(), "[SentryHook] json.Unmarshal data")
}

func TestSentryHook_MapLevel(t *testing.T) {
	hook, _ := newTestHook("prod")

	assert.Equal(t, sentry.LevelError, hook.mapLevel(2))
	assert.Equal(t, sentry.LevelFatal, hook.mapLevel(5))
	assert.Equal(t, sentry.LevelInfo, hook.mapLevel(0))
}
