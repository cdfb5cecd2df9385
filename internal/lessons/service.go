// Package lessons generates lesson text for a curriculum position and
// answers questions in the context of one.
package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/llm"
)

// Service generates lessons, review lessons and contextual answers.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a lesson generation service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Lesson generates the lesson for (topic, subtopic) and returns it as a
// bot message body headed by the position.
func (s *Service) Lesson(ctx context.Context, topic, subtopic string) (string, error) {
	subtopic = orOverview(subtopic)
	text, err := s.complete(llm.WithPurpose(ctx, "lesson"), buildLessonPrompt(topic, subtopic))
	if err != nil {
		return "", fmt.Errorf("lesson generation: %w", err)
	}
	return fmt.Sprintf("Topic: %s\nSubtopic: %s\n\n%s", topic, subtopic, text), nil
}

// Review re-teaches (topic, subtopic) with different examples.
func (s *Service) Review(ctx context.Context, topic, subtopic string) (string, error) {
	subtopic = orOverview(subtopic)
	text, err := s.complete(llm.WithPurpose(ctx, "review"), buildReviewPrompt(topic, subtopic))
	if err != nil {
		return "", fmt.Errorf("review generation: %w", err)
	}
	return fmt.Sprintf("Subtopic: %s\n(Topic: %s)\n\nLet's review with different examples:\n\n%s", subtopic, topic, text), nil
}

// Answer responds to a free-form question in the context of the
// current position.
func (s *Service) Answer(ctx context.Context, topic, subtopic, question string) (string, error) {
	text, err := s.complete(llm.WithPurpose(ctx, "answer"), buildAnswerPrompt(topic, orOverview(subtopic), question))
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}
	return text, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func orOverview(subtopic string) string {
	if strings.TrimSpace(subtopic) == "" {
		return curriculum.Overview
	}
	return subtopic
}
