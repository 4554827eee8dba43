// Package sentiment relays tweet tone analysis for two query topics.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emeersman/design-for-iot/internal/broker"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

type Service struct {
	searcher       repositories.TweetSearcher
	tone           repositories.ToneRepository
	broker         broker.Publisher
	topic          string
	tweetsPerQuery int
	l              *logger.Logger
}

func NewService(
	searcher repositories.TweetSearcher,
	tone repositories.ToneRepository,
	b broker.Publisher,
	sentimentTopic string,
	tweetsPerQuery int,
	l *logger.Logger,
) *Service {
	return &Service{
		searcher:       searcher,
		tone:           tone,
		broker:         b,
		topic:          sentimentTopic,
		tweetsPerQuery: tweetsPerQuery,
		l:              l,
	}
}

// Analyze fetches recent tweets about topic and returns their normalized
// tones. An empty topic, or one with no tweet text, has no emotions.
func (s *Service) Analyze(ctx context.Context, topic string) (models.TopicSentiment, error) {
	result := models.TopicSentiment{Topic: topic, Emotions: map[string]float64{}}

	if strings.TrimSpace(topic) == "" {
		return result, nil
	}

	texts, err := s.searcher.SearchRecent(ctx, topic, s.tweetsPerQuery)
	if err != nil {
		return result, fmt.Errorf("failed to fetch tweets for %q: %w", topic, err)
	}

	text := strings.TrimSpace(strings.Join(texts, " "))
	if text == "" {
		s.l.Info("no tweet text to analyze", map[string]any{"topic": topic})
		return result, nil
	}

	tones, err := s.tone.AnalyzeTone(ctx, text)
	if err != nil {
		return result, fmt.Errorf("failed to analyze tone for %q: %w", topic, err)
	}

	result.Emotions = models.NormalizeTones(tones)

	return result, nil
}

// HandleQuery analyzes both topics concurrently and publishes the pair in
// query order. Nothing is published when either analysis fails.
func (s *Service) HandleQuery(ctx context.Context, query models.TopicQuery) ([]models.TopicSentiment, error) {
	start := time.Now()
	topics := []string{query.Q1, query.Q2}

	results := make([]models.TopicSentiment, len(topics))
	var (
		mu       sync.Mutex
		firstErr error
	)

	wg := sync.WaitGroup{}

	for i, topic := range topics {
		wg.Add(1)

		go func(i int, topic string) {
			defer wg.Done()
			s.l.Debug("analyzing topic", map[string]any{"topic": topic})

			result, err := s.Analyze(ctx, topic)
			if err != nil {
				s.l.Warning("failed to analyze topic", map[string]any{"topic": topic, "err": err.Error()})
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			results[i] = result
		}(i, topic)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sentiment payload: %w", err)
	}

	if err := s.broker.Publish(ctx, s.topic, payload, false); err != nil {
		return nil, fmt.Errorf("failed to publish sentiment: %w", err)
	}

	s.l.Info("published sentiment", map[string]any{
		"topic":    s.topic,
		"q1":       query.Q1,
		"q2":       query.Q2,
		"provider": s.tone.Name(),
		"duration": time.Since(start).String(),
	})

	return results, nil
}
