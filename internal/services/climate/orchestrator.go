package climate

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// Orchestrator sequences the store, aggregator, renderer and publisher for
// each inbound event. It holds no observation state of its own: every
// handler takes the current Observation and returns the next one, and the
// caller runs handlers one at a time.
type Orchestrator struct {
	store           repositories.HistoryRepository
	renderer        *Renderer
	publisher       *Publisher
	defaultLocation string
	now             func() time.Time
	l               *logger.Logger
}

func NewOrchestrator(
	store repositories.HistoryRepository,
	renderer *Renderer,
	publisher *Publisher,
	defaultLocation string,
	l *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:           store,
		renderer:        renderer,
		publisher:       publisher,
		defaultLocation: defaultLocation,
		now:             time.Now,
		l:               l,
	}
}

// WithClock replaces the time source.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Initial is the observation before any event arrives.
func (o *Orchestrator) Initial() models.Observation {
	return models.Observation{Location: o.defaultLocation}
}

// HandleLocation switches the monitored location.
func (o *Orchestrator) HandleLocation(state models.Observation, update models.LocationUpdate) models.Observation {
	next := state.WithLocation(update.CityName)

	o.l.Info("location updated", map[string]any{
		"from": state.Location,
		"to":   next.Location,
	})

	return next
}

// HandleDaily records the new readings, stores yesterday's high, then
// publishes the series and posts the plot at most once per calendar day.
// The readings are kept even when a later step fails.
func (o *Orchestrator) HandleDaily(ctx context.Context, state models.Observation, update models.DailyUpdate) (models.Observation, error) {
	state = state.WithDaily(*update.Temperature, *update.PrevTemperature)
	today := o.now()
	yesterday := today.AddDate(0, 0, -1)

	if _, err := o.store.AppendDay(ctx, state.Location, yesterday, state.PrevTemperature); err != nil {
		return state, fmt.Errorf("failed to store yesterday's high: %w", err)
	}

	series, ext, err := o.buildSeries(ctx, state, today)
	if err != nil {
		return state, err
	}

	if err := o.publisher.PublishSeries(ctx, series); err != nil {
		o.l.Error(err, map[string]any{"location": state.Location})
	}

	path, err := o.renderer.RenderFile(series, state.Location, today)
	if err != nil {
		return state, err
	}

	if state.PostedOn(today) {
		o.l.Info("plot already posted today", map[string]any{
			"location": state.Location,
			"date":     state.LastPosted,
			"path":     path,
		})
		return state, nil
	}

	caption := Caption(state.Location, today, o.renderer.StartYear, state.Temperature, ext)
	if _, err := o.publisher.PostImage(ctx, path, caption); err != nil {
		if errors.Is(err, repositories.ErrPosterDisabled) {
			o.l.Info("posting disabled, plot kept on disk", map[string]any{"path": path})
			return state, nil
		}
		return state, fmt.Errorf("failed to post plot: %w", err)
	}

	return state.WithPosted(today), nil
}

// HandleQuery republishes the series for today. It never writes the store
// and never posts.
func (o *Orchestrator) HandleQuery(ctx context.Context, state models.Observation) error {
	series, _, err := o.buildSeries(ctx, state, o.now())
	if err != nil {
		return err
	}

	return o.publisher.PublishSeries(ctx, series)
}

func (o *Orchestrator) buildSeries(ctx context.Context, state models.Observation, today time.Time) (models.DaySeries, models.Extremes, error) {
	history, err := o.store.Load(ctx, state.Location)
	if err != nil {
		return nil, models.Extremes{}, fmt.Errorf("failed to load history for %s: %w", state.Location, err)
	}

	series, ext := Aggregate(history, models.MonthDay(today), today, state.Temperature)

	o.l.Debug("aggregated historical series", map[string]any{
		"location":  state.Location,
		"month_day": models.MonthDay(today),
		"records":   len(series),
		"high":      ext.HighTemp,
		"low":       ext.LowTemp,
	})

	return series, ext, nil
}
