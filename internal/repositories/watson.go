package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
	"github.com/emeersman/design-for-iot/pkg/resilience"
)

// WatsonToneRepository calls the IBM Watson Tone Analyzer v3 API.
type WatsonToneRepository struct {
	BaseURL string
	APIKey  string
	Version string
	caller  *resilience.Caller
	l       *logger.Logger
}

func NewWatsonToneRepository(cfg config.ToneConfig, httpClient HTTPClient, remote config.RemoteConfig, l *logger.Logger) (*WatsonToneRepository, error) {
	if strings.TrimSpace(cfg.WatsonAPIKey) == "" {
		return nil, errors.New("watson API key cannot be empty")
	}
	if strings.TrimSpace(cfg.WatsonURL) == "" {
		return nil, errors.New("watson service URL cannot be empty")
	}

	return &WatsonToneRepository{
		BaseURL: strings.TrimRight(cfg.WatsonURL, "/"),
		APIKey:  cfg.WatsonAPIKey,
		Version: cfg.WatsonVersion,
		caller:  newCaller("watson", httpClient, remote),
		l:       l,
	}, nil
}

func (w *WatsonToneRepository) Name() string {
	return "watson"
}

type watsonToneResponse struct {
	DocumentTone struct {
		Tones []struct {
			Score    float64 `json:"score"`
			ToneID   string  `json:"tone_id"`
			ToneName string  `json:"tone_name"`
		} `json:"tones"`
	} `json:"document_tone"`
}

func (w *WatsonToneRepository) AnalyzeTone(ctx context.Context, text string) ([]models.Tone, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	params := url.Values{}
	params.Set("version", w.Version)
	params.Set("sentences", "false")
	endpoint := fmt.Sprintf("%s/v3/tone?%s", w.BaseURL, params.Encode())

	w.l.Info("making watson tone request", map[string]any{
		"chars": len(text),
	})

	resp, err := w.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.SetBasicAuth("apikey", w.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response watsonToneResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	tones := make([]models.Tone, 0, len(response.DocumentTone.Tones))
	for _, tone := range response.DocumentTone.Tones {
		tones = append(tones, models.Tone{ID: tone.ToneID, Score: tone.Score})
	}

	w.l.Info("parsed watson tone response", map[string]any{
		"tones": len(tones),
	})

	return tones, nil
}
