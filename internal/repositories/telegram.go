package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// TelegramRepository posts plots to a Telegram chat through a bot.
type TelegramRepository struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	l      *logger.Logger
}

func NewTelegramRepository(cfg config.TelegramConfig, remote config.RemoteConfig, l *logger.Logger) (*TelegramRepository, error) {
	return newTelegramRepository(cfg, tgbotapi.APIEndpoint, &http.Client{Timeout: remote.Timeout}, l)
}

func newTelegramRepository(cfg config.TelegramConfig, endpoint string, client *http.Client, l *logger.Logger) (*TelegramRepository, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token cannot be empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id cannot be empty")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	l.Info("authorized telegram bot", map[string]any{
		"account": bot.Self.UserName,
	})

	return &TelegramRepository{
		bot:    bot,
		chatID: cfg.ChatID,
		l:      l,
	}, nil
}

func (t *TelegramRepository) Name() string {
	return "telegram"
}

// PostImage sends the image as a photo with the caption. The bot API has
// no context support, so ctx is only checked before sending.
func (t *TelegramRepository) PostImage(ctx context.Context, imagePath, caption string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FilePath(imagePath))
	photo.Caption = caption

	msg, err := t.bot.Send(photo)
	if err != nil {
		return "", fmt.Errorf("failed to send photo: %w", err)
	}

	id := strconv.Itoa(msg.MessageID)
	t.l.Info("posted telegram photo", map[string]any{
		"chat_id":    t.chatID,
		"message_id": id,
	})

	return id, nil
}
