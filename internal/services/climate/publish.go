package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/emeersman/design-for-iot/internal/broker"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// Publisher emits the day's series on the history topic and hands rendered
// plots to the configured poster.
type Publisher struct {
	broker       broker.Publisher
	poster       repositories.PosterRepository
	historyTopic string
	l            *logger.Logger
}

func NewPublisher(b broker.Publisher, poster repositories.PosterRepository, historyTopic string, l *logger.Logger) *Publisher {
	return &Publisher{
		broker:       b,
		poster:       poster,
		historyTopic: historyTopic,
		l:            l,
	}
}

// PublishSeries sends {"historical": [...]} as a retained message so late
// subscribers get the latest series immediately.
func (p *Publisher) PublishSeries(ctx context.Context, series models.DaySeries) error {
	if series == nil {
		series = models.DaySeries{}
	}

	payload, err := json.Marshal(models.HistoricalPayload{Historical: series})
	if err != nil {
		return fmt.Errorf("failed to encode historical payload: %w", err)
	}

	if err := p.broker.Publish(ctx, p.historyTopic, payload, true); err != nil {
		return fmt.Errorf("failed to publish historical series: %w", err)
	}

	p.l.Info("published historical series", map[string]any{
		"topic":   p.historyTopic,
		"records": len(series),
	})

	return nil
}

// PostImage posts the plot at imagePath and returns the post id.
func (p *Publisher) PostImage(ctx context.Context, imagePath, caption string) (string, error) {
	id, err := p.poster.PostImage(ctx, imagePath, caption)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.poster.Name(), err)
	}

	p.l.Info("posted historical plot", map[string]any{
		"poster":  p.poster.Name(),
		"post_id": id,
		"path":    imagePath,
	})

	return id, nil
}

// Caption describes the plot: location, month/day, the year range, today's
// forecast and the historical low and high with their years.
func Caption(location string, day time.Time, startYear int, forecast float64, ext models.Extremes) string {
	return fmt.Sprintf(
		"Temperature data for %d/%d in #%s from %d - %d. Forecast high for today is %s°F. "+
			"Historical temps range from %s°F (%s) to %s°F (%s) #showyourstripes",
		int(day.Month()), day.Day(), hashtag(location), startYear, day.Year(), formatTemp(forecast),
		formatTemp(ext.LowTemp), ext.LowYear, formatTemp(ext.HighTemp), ext.HighYear,
	)
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// hashtag keeps letters and digits so "St. Louis" becomes #StLouis.
func hashtag(location string) string {
	return alnum(location)
}
