package mqtt

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/services/sentiment"
)

type SentimentController struct {
	service  *sentiment.Service
	topic    string
	validate *validator.Validate
}

func NewSentimentController(service *sentiment.Service, queryTopic string) *SentimentController {
	return &SentimentController{
		service:  service,
		topic:    queryTopic,
		validate: validator.New(),
	}
}

func (c *SentimentController) Register(loop *EventLoop) {
	loop.Handle(c.topic, c.handleQuery)
}

func (c *SentimentController) handleQuery(ctx context.Context, payload []byte) error {
	query, err := decode[models.TopicQuery](c.validate, payload)
	if err != nil {
		return err
	}

	_, err = c.service.HandleQuery(ctx, query)
	return err
}
