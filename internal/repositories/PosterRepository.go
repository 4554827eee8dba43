package repositories

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

var ErrPosterDisabled = errors.New("posting disabled")

// PosterRepository publishes a rendered plot with a caption to a social
// network and returns the id of the created post.
type PosterRepository interface {
	Name() string
	PostImage(ctx context.Context, imagePath, caption string) (string, error)
}

// NopPoster is used when posting is switched off.
type NopPoster struct{}

func (NopPoster) Name() string { return "none" }

func (NopPoster) PostImage(context.Context, string, string) (string, error) {
	return "", ErrPosterDisabled
}

func InitPosterRepository(cfg *config.Config, l *logger.Logger) (PosterRepository, error) {
	switch cfg.Poster.Target {
	case "twitter":
		return NewTwitterRepository(cfg.Twitter, cfg.Remote, l)
	case "telegram":
		return NewTelegramRepository(cfg.Telegram, cfg.Remote, l)
	case "none":
		return NopPoster{}, nil
	default:
		return nil, fmt.Errorf("unknown poster target %q", cfg.Poster.Target)
	}
}
