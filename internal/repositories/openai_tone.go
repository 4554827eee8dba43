package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

const toneSystemPrompt = `You are a tone analyzer. Given a blob of tweets, detect the document-level
emotional and language tones among: anger, fear, joy, sadness, analytical,
confident, tentative. Report only tones you are at least 50% confident in,
each with a confidence score between 0.5 and 1.0. If no tone clears that
floor, return an empty list. Output strictly in JSON.`

// ToneScore is one tone in the structured model output.
type ToneScore struct {
	ToneID string  `json:"tone_id" jsonschema_description:"One of anger, fear, joy, sadness, analytical, confident, tentative"`
	Score  float64 `json:"score" jsonschema_description:"Confidence between 0.5 and 1.0"`
}

// ToneAgentResponse is the structured output requested from the model.
type ToneAgentResponse struct {
	Tones []ToneScore `json:"tones" jsonschema_description:"Detected tones; empty when none clears the confidence floor"`
}

// OpenAIToneRepository asks a chat model for Watson-style document tones.
type OpenAIToneRepository struct {
	client  openai.Client
	model   string
	schema  interface{}
	timeout time.Duration
	l       *logger.Logger
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func NewOpenAIToneRepository(cfg config.ToneConfig, remote config.RemoteConfig, l *logger.Logger) (*OpenAIToneRepository, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("OpenAI API key cannot be empty")
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(remote.MaxRetries),
	)

	return &OpenAIToneRepository{
		client:  client,
		model:   cfg.OpenAIModel,
		schema:  GenerateSchema[ToneAgentResponse](),
		timeout: remote.Timeout,
		l:       l,
	}, nil
}

func (o *OpenAIToneRepository) Name() string {
	return "openai"
}

func (o *OpenAIToneRepository) AnalyzeTone(ctx context.Context, text string) ([]models.Tone, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "tone_response",
		Description: openai.String("Document tones with confidence scores"),
		Schema:      o.schema,
		Strict:      openai.Bool(true),
	}

	o.l.Info("making openai tone request", map[string]any{
		"model": o.model,
		"chars": len(text),
	})

	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(toneSystemPrompt),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return parseToneAgentResponse(chat.Choices[0].Message.Content)
}

func parseToneAgentResponse(content string) ([]models.Tone, error) {
	var agentResp ToneAgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}

	tones := make([]models.Tone, 0, len(agentResp.Tones))
	for _, t := range agentResp.Tones {
		if t.ToneID == "" || t.Score <= 0 {
			continue
		}
		tones = append(tones, models.Tone{ID: t.ToneID, Score: t.Score})
	}

	return tones, nil
}
