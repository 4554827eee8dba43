package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/broker"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/climate"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

type recordingBroker struct {
	payloads [][]byte
}

func (b *recordingBroker) Publish(_ context.Context, _ string, payload []byte, _ bool) error {
	b.payloads = append(b.payloads, payload)
	return nil
}

type countingPoster struct {
	posts int
}

func (p *countingPoster) Name() string { return "counting" }

func (p *countingPoster) PostImage(context.Context, string, string) (string, error) {
	p.posts++
	return "1", nil
}

type weatherFixture struct {
	loop   *EventLoop
	ctrl   *WeatherController
	store  *repositories.JSONHistoryRepository
	broker *recordingBroker
	poster *countingPoster
}

func newWeatherFixture(t *testing.T) *weatherFixture {
	t.Helper()

	l := logger.NewZapLogger("test-app", io.Discard)
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Render.OutputDir = filepath.Join(dir, "plots")
	cfg.Render.BarWidth = 2
	cfg.Render.Height = 50

	store, err := repositories.NewJSONHistoryRepository(filepath.Join(dir, "data"), l)
	require.NoError(t, err)

	f := &weatherFixture{
		store:  store,
		broker: &recordingBroker{},
		poster: &countingPoster{},
	}

	orch := climate.NewOrchestrator(
		store,
		climate.NewRenderer(cfg.Render, l),
		climate.NewPublisher(f.broker, f.poster, cfg.Topics.History, l),
		cfg.History.DefaultLocation,
		l,
	).WithClock(func() time.Time { return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC) })

	f.loop = NewEventLoop(l)
	f.ctrl = NewWeatherController(orch, cfg.Topics, l)
	f.ctrl.Register(f.loop)

	return f
}

func (f *weatherFixture) send(topic, payload string) {
	f.loop.Dispatch(context.Background(), broker.Message{Topic: topic, Payload: []byte(payload)})
}

func TestWeatherController_EndToEnd(t *testing.T) {
	f := newWeatherFixture(t)

	assert.ElementsMatch(t, []string{"location", "weather/daily", "weather/query"}, f.loop.Topics())
	assert.Equal(t, "Seattle", f.ctrl.State().Location)

	f.send("location", `{"city_name":"Portland"}`)
	assert.Equal(t, "Portland", f.ctrl.State().Location)

	f.send("weather/daily", `{"temperature":61.5,"prev_temperature":58}`)
	state := f.ctrl.State()
	assert.Equal(t, 61.5, state.Temperature)
	assert.Equal(t, 58.0, state.PrevTemperature)
	assert.Equal(t, "2026-10-16", state.LastPosted)
	assert.Equal(t, 1, f.poster.posts)

	history, err := f.store.Load(context.Background(), "Portland")
	require.NoError(t, err)
	assert.Equal(t, models.History{"2026-10-15": 58}, history)

	f.send("weather/query", ``)
	require.Len(t, f.broker.payloads, 2)

	var payload models.HistoricalPayload
	require.NoError(t, json.Unmarshal(f.broker.payloads[1], &payload))
	assert.Equal(t, models.DaySeries{{Date: "2026-10-16", Temp: 61.5}}, payload.Historical)
	assert.Equal(t, 1, f.poster.posts)
}

func TestWeatherController_MalformedPayloadsAreDropped(t *testing.T) {
	f := newWeatherFixture(t)

	f.send("location", `{"city_name":""}`)
	f.send("location", `{"city":"Portland"}`)
	f.send("weather/daily", `{"temperature":61.5}`)
	f.send("weather/daily", `{"temperature":"hot","prev_temperature":58}`)
	f.send("weather/daily", `garbage`)

	assert.Equal(t, models.Observation{Location: "Seattle"}, f.ctrl.State())
	assert.Empty(t, f.broker.payloads)
	assert.Zero(t, f.poster.posts)

	f.send("weather/daily", `{"temperature":0,"prev_temperature":0}`)
	assert.Equal(t, "2026-10-16", f.ctrl.State().LastPosted, "zero readings are valid")
}
