package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dghubble/oauth1"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/logger"
	"github.com/emeersman/design-for-iot/pkg/resilience"
)

// TweetSearcher finds recent tweets about a topic.
type TweetSearcher interface {
	SearchRecent(ctx context.Context, topic string, limit int) ([]string, error)
}

// TwitterRepository talks to the Twitter API with OAuth 1.0a user
// credentials. It both searches tweets and posts images.
type TwitterRepository struct {
	APIBaseURL    string
	UploadBaseURL string
	caller        *resilience.Caller
	l             *logger.Logger
}

func NewTwitterRepository(cfg config.TwitterConfig, remote config.RemoteConfig, l *logger.Logger) (*TwitterRepository, error) {
	if cfg.APIKey == "" || cfg.APIKeySecret == "" || cfg.AccessToken == "" || cfg.AccessTokenSecret == "" {
		return nil, errors.New("twitter credentials cannot be empty")
	}

	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APIKeySecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
	httpClient := oauthConfig.Client(context.Background(), token)

	return newTwitterRepository(httpClient, cfg.APIBaseURL, cfg.UploadBaseURL, remote, l), nil
}

func newTwitterRepository(client HTTPClient, apiBaseURL, uploadBaseURL string, remote config.RemoteConfig, l *logger.Logger) *TwitterRepository {
	return &TwitterRepository{
		APIBaseURL:    strings.TrimRight(apiBaseURL, "/"),
		UploadBaseURL: strings.TrimRight(uploadBaseURL, "/"),
		caller:        newCaller("twitter", client, remote),
		l:             l,
	}
}

func (t *TwitterRepository) Name() string {
	return "twitter"
}

type searchResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// SearchRecent returns the text of up to limit recent English tweets about
// topic, retweets excluded.
func (t *TwitterRepository) SearchRecent(ctx context.Context, topic string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("query", topic+" -is:retweet lang:en")
	params.Set("max_results", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/2/tweets/search/recent?%s", t.APIBaseURL, params.Encode())

	t.l.Info("making tweet search request", map[string]any{
		"topic": topic,
		"limit": limit,
	})

	resp, err := t.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search tweets: %w", err)
	}
	defer resp.Body.Close()

	var response searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	texts := make([]string, 0, len(response.Data))
	for _, tweet := range response.Data {
		texts = append(texts, tweet.Text)
	}

	t.l.Info("parsed tweet search response", map[string]any{
		"topic":  topic,
		"tweets": len(texts),
	})

	return texts, nil
}

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type createTweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// PostImage uploads the image and posts a tweet carrying it.
func (t *TwitterRepository) PostImage(ctx context.Context, imagePath, caption string) (string, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	mediaID, err := t.uploadMedia(ctx, filepath.Base(imagePath), image)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(createTweetRequest{
		Text:  caption,
		Media: &tweetMedia{MediaIDs: []string{mediaID}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode tweet: %w", err)
	}

	resp, err := t.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.APIBaseURL+"/2/tweets", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create tweet: %w", err)
	}
	defer resp.Body.Close()

	var created createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if created.Data.ID == "" {
		return "", errors.New("twitter returned no tweet id")
	}

	t.l.Info("posted tweet", map[string]any{
		"tweet_id": created.Data.ID,
		"media_id": mediaID,
	})

	return created.Data.ID, nil
}

func (t *TwitterRepository) uploadMedia(ctx context.Context, name string, image []byte) (string, error) {
	endpoint := t.UploadBaseURL + "/1.1/media/upload.json"

	resp, err := t.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("media", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var uploaded mediaUploadResponse
	if err := json.Unmarshal(raw, &uploaded); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", errors.New("twitter returned no media id")
	}

	return uploaded.MediaIDString, nil
}
