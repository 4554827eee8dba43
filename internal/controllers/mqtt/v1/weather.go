package mqtt

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/services/climate"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// WeatherController owns the bot's Observation and feeds it through the
// orchestrator. It must only be driven from one EventLoop.
type WeatherController struct {
	orch     *climate.Orchestrator
	state    models.Observation
	topics   config.TopicsConfig
	validate *validator.Validate
	l        *logger.Logger
}

func NewWeatherController(orch *climate.Orchestrator, topics config.TopicsConfig, l *logger.Logger) *WeatherController {
	return &WeatherController{
		orch:     orch,
		state:    orch.Initial(),
		topics:   topics,
		validate: validator.New(),
		l:        l,
	}
}

// Register wires the location, daily and query topics.
func (c *WeatherController) Register(loop *EventLoop) {
	loop.Handle(c.topics.Location, c.handleLocation)
	loop.Handle(c.topics.Daily, c.handleDaily)
	loop.Handle(c.topics.Query, c.handleQuery)
}

func (c *WeatherController) State() models.Observation {
	return c.state
}

func (c *WeatherController) handleLocation(_ context.Context, payload []byte) error {
	update, err := decode[models.LocationUpdate](c.validate, payload)
	if err != nil {
		return err
	}

	c.state = c.orch.HandleLocation(c.state, update)
	return nil
}

func (c *WeatherController) handleDaily(ctx context.Context, payload []byte) error {
	update, err := decode[models.DailyUpdate](c.validate, payload)
	if err != nil {
		return err
	}

	next, err := c.orch.HandleDaily(ctx, c.state, update)
	c.state = next
	return err
}

// The query payload carries nothing the pipeline needs.
func (c *WeatherController) handleQuery(ctx context.Context, _ []byte) error {
	return c.orch.HandleQuery(ctx, c.state)
}
