package repositories

import (
	"context"
	"fmt"
	"net/http"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// ToneRepository detects the emotional tones of a text blob.
type ToneRepository interface {
	Name() string
	// AnalyzeTone returns the raw tones that cleared the service's
	// confidence floor; an empty slice means none did.
	AnalyzeTone(ctx context.Context, text string) ([]models.Tone, error)
}

func InitToneRepository(cfg *config.Config, l *logger.Logger) (ToneRepository, error) {
	switch cfg.Tone.Provider {
	case "watson":
		return NewWatsonToneRepository(cfg.Tone, http.DefaultClient, cfg.Remote, l)
	case "openai":
		return NewOpenAIToneRepository(cfg.Tone, cfg.Remote, l)
	default:
		return nil, fmt.Errorf("unknown tone provider %q", cfg.Tone.Provider)
	}
}
