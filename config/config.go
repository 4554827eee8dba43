package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	App      AppConfig      `yaml:"app"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Topics   TopicsConfig   `yaml:"topics"`
	History  HistoryConfig  `yaml:"history"`
	Render   RenderConfig   `yaml:"render"`
	Remote   RemoteConfig   `yaml:"remote"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	Telegram TelegramConfig `yaml:"telegram"`
	Tone     ToneConfig     `yaml:"tone"`
	Poster   PosterConfig   `yaml:"poster"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sentry   SentryConfig   `yaml:"sentry"`
}

type AppConfig struct {
	Name    string `yaml:"name" envconfig:"APP_NAME" validate:"required"`
	Version string `yaml:"version" envconfig:"APP_VERSION"`
	Env     string `yaml:"env" envconfig:"APP_ENV" validate:"oneof=local dev prod"`
}

type MQTTConfig struct {
	Host           string        `yaml:"host" envconfig:"MQTT_HOST" validate:"required"`
	Port           int           `yaml:"port" envconfig:"MQTT_PORT" validate:"min=1,max=65535"`
	Username       string        `yaml:"username" envconfig:"MQTT_USERNAME"`
	Password       string        `yaml:"password" envconfig:"MQTT_PASSWORD"`
	ClientIDPrefix string        `yaml:"client_id_prefix" envconfig:"MQTT_CLIENT_ID_PREFIX"`
	QoS            byte          `yaml:"qos" envconfig:"MQTT_QOS" validate:"max=2"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"MQTT_CONNECT_TIMEOUT" validate:"gt=0"`
}

type TopicsConfig struct {
	Location         string `yaml:"location" envconfig:"TOPIC_LOCATION" validate:"required"`
	Daily            string `yaml:"daily" envconfig:"TOPIC_DAILY" validate:"required"`
	Query            string `yaml:"query" envconfig:"TOPIC_QUERY" validate:"required"`
	History          string `yaml:"history" envconfig:"TOPIC_HISTORY" validate:"required"`
	TwitterQuery     string `yaml:"twitter_query" envconfig:"TOPIC_TWITTER_QUERY" validate:"required"`
	TwitterSentiment string `yaml:"twitter_sentiment" envconfig:"TOPIC_TWITTER_SENTIMENT" validate:"required"`
}

type HistoryConfig struct {
	Driver          string `yaml:"driver" envconfig:"HISTORY_DRIVER" validate:"oneof=json sqlite"`
	DataDir         string `yaml:"data_dir" envconfig:"HISTORY_DATA_DIR" validate:"required"`
	SQLitePath      string `yaml:"sqlite_path" envconfig:"HISTORY_SQLITE_PATH"`
	DefaultLocation string `yaml:"default_location" envconfig:"HISTORY_DEFAULT_LOCATION" validate:"required"`
}

type RenderConfig struct {
	OutputDir string  `yaml:"output_dir" envconfig:"RENDER_OUTPUT_DIR" validate:"required"`
	ColorMin  float64 `yaml:"color_min" envconfig:"RENDER_COLOR_MIN"`
	ColorMax  float64 `yaml:"color_max" envconfig:"RENDER_COLOR_MAX"`
	StartYear int     `yaml:"start_year" envconfig:"RENDER_START_YEAR" validate:"min=1"`
	BarWidth  int     `yaml:"bar_width" envconfig:"RENDER_BAR_WIDTH" validate:"min=1"`
	Height    int     `yaml:"height" envconfig:"RENDER_HEIGHT" validate:"min=1"`
}

type RemoteConfig struct {
	Timeout         time.Duration `yaml:"timeout" envconfig:"REMOTE_TIMEOUT" validate:"gt=0"`
	MaxRetries      int           `yaml:"max_retries" envconfig:"REMOTE_MAX_RETRIES" validate:"min=0,max=10"`
	InitialInterval time.Duration `yaml:"initial_interval" envconfig:"REMOTE_INITIAL_INTERVAL" validate:"gt=0"`
	MaxInterval     time.Duration `yaml:"max_interval" envconfig:"REMOTE_MAX_INTERVAL"`
}

type TwitterConfig struct {
	APIKey            string `yaml:"api_key,omitempty" envconfig:"TWITTER_API_KEY"`
	APIKeySecret      string `yaml:"api_key_secret,omitempty" envconfig:"TWITTER_API_KEY_SECRET"`
	AccessToken       string `yaml:"access_token,omitempty" envconfig:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `yaml:"access_token_secret,omitempty" envconfig:"TWITTER_ACCESS_TOKEN_SECRET"`
	TweetsPerQuery    int    `yaml:"tweets_per_query" envconfig:"TWITTER_TWEETS_PER_QUERY" validate:"min=10,max=100"`
	APIBaseURL        string `yaml:"api_base_url" envconfig:"TWITTER_API_BASE_URL" validate:"url"`
	UploadBaseURL     string `yaml:"upload_base_url" envconfig:"TWITTER_UPLOAD_BASE_URL" validate:"url"`
}

type TelegramConfig struct {
	Token  string `yaml:"token,omitempty" envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
}

type ToneConfig struct {
	Provider      string `yaml:"provider" envconfig:"TONE_PROVIDER" validate:"oneof=watson openai"`
	WatsonURL     string `yaml:"watson_url" envconfig:"TONE_WATSON_URL"`
	WatsonAPIKey  string `yaml:"watson_api_key,omitempty" envconfig:"TONE_WATSON_API_KEY"`
	WatsonVersion string `yaml:"watson_version" envconfig:"TONE_WATSON_VERSION"`
	OpenAIAPIKey  string `yaml:"openai_api_key,omitempty" envconfig:"TONE_OPENAI_API_KEY"`
	OpenAIModel   string `yaml:"openai_model" envconfig:"TONE_OPENAI_MODEL"`
}

type PosterConfig struct {
	Target string `yaml:"target" envconfig:"POSTER_TARGET" validate:"oneof=twitter telegram none"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"SERVER_ENABLED"`
	Port    string `yaml:"port" envconfig:"SERVER_PORT" validate:"required,numeric"`
}

type ScheduleConfig struct {
	// QueryCron re-runs the query pipeline on a cron spec; empty disables it.
	QueryCron string `yaml:"query_cron" envconfig:"SCHEDULE_QUERY_CRON"`
}

type SentryConfig struct {
	DSN   string `yaml:"dsn,omitempty" envconfig:"SENTRY_DSN"`
	Debug bool   `yaml:"debug" envconfig:"SENTRY_DEBUG"`
}

// Default returns the configuration used when neither a YAML file nor the
// environment overrides a value. Topic names match the ESP8266 firmware.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "design-for-iot",
			Version: "1.0.0",
			Env:     "local",
		},
		MQTT: MQTTConfig{
			Host:           "localhost",
			Port:           1883,
			ClientIDPrefix: "design-for-iot",
			QoS:            0,
			ConnectTimeout: 10 * time.Second,
		},
		Topics: TopicsConfig{
			Location:         "location",
			Daily:            "weather/daily",
			Query:            "weather/query",
			History:          "weather/history",
			TwitterQuery:     "twitter/query",
			TwitterSentiment: "twitter/sentiment",
		},
		History: HistoryConfig{
			Driver:          "json",
			DataDir:         "data",
			SQLitePath:      "data/history.db",
			DefaultLocation: "Seattle",
		},
		Render: RenderConfig{
			OutputDir: "data/plots",
			ColorMin:  20,
			ColorMax:  100,
			StartYear: 1979,
			BarWidth:  12,
			Height:    400,
		},
		Remote: RemoteConfig{
			Timeout:         15 * time.Second,
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Twitter: TwitterConfig{
			TweetsPerQuery: 10,
			APIBaseURL:     "https://api.twitter.com",
			UploadBaseURL:  "https://upload.twitter.com",
		},
		Tone: ToneConfig{
			Provider:      "watson",
			WatsonVersion: "2017-09-21",
			OpenAIModel:   "gpt-4o",
		},
		Poster: PosterConfig{
			Target: "twitter",
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    "8080",
		},
	}
}

// NewConfig loads the configuration or panics, mirroring the fail-fast
// startup of the binaries.
func NewConfig() *Config {
	cnf, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(fmt.Errorf("error loading configuration: %w", err))
	}
	return cnf
}

// Load layers defaults, the YAML file at path (config/config.yaml when
// empty, skipped when missing), a .env file and the process environment.
func Load(path string) (*Config, error) {
	cnf := Default()

	if path == "" {
		path = defaultConfigPath
	}

	yamlData, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlData, cnf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read YAML config %s: %w", path, err)
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	// Sections are processed one by one with fully qualified variable names
	// so that generic names such as PORT never leak into a section.
	for _, section := range cnf.sections() {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("error environment variable parsing: %w", err)
		}
	}

	if err := cnf.Validate(); err != nil {
		return nil, err
	}

	return cnf, nil
}

func (c *Config) sections() []any {
	return []any{
		&c.App, &c.MQTT, &c.Topics, &c.History, &c.Render, &c.Remote,
		&c.Twitter, &c.Telegram, &c.Tone, &c.Poster, &c.Server,
		&c.Schedule, &c.Sentry,
	}
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Render.ColorMax < c.Render.ColorMin {
		return fmt.Errorf("invalid configuration: render.color_max %.1f below render.color_min %.1f",
			c.Render.ColorMax, c.Render.ColorMin)
	}

	if c.History.Driver == "sqlite" && c.History.SQLitePath == "" {
		return errors.New("invalid configuration: history.sqlite_path required for the sqlite driver")
	}

	return nil
}
