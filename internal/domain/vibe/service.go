package vibe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

// Service interprets mood tags and generates quick prompts.
type Service interface {
	Interpret(ctx context.Context, req InterpretRequest) (InterpretResponse, error)
	QuickPrompts(ctx context.Context, req InterpretRequest) (PromptsResponse, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// Store caches quick prompts per mood; prompts are stable enough per
// vibe that regenerating them every turn is wasted tokens.
type Store interface {
	GetPrompts(ctx context.Context, vibe string) ([]string, bool, error)
	SavePrompts(ctx context.Context, vibe string, prompts []string) error
}

type service struct {
	cfg    Config
	client ChatClient
	store  Store
	logger *slog.Logger
}

// NewService wires up the vibe domain.
func NewService(cfg Config, client ChatClient, store Store, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With("component", "vibe.service"),
	}
}

func (s *service) Interpret(ctx context.Context, req InterpretRequest) (InterpretResponse, error) {
	mood, err := normalizeVibe(req.Vibe)
	if err != nil {
		return InterpretResponse{}, err
	}

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: s.cfg.Prompt},
			{Role: "user", Content: "Vibe status: " + mood},
		},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConfig) {
			return InterpretResponse{}, err
		}
		return InterpretResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}
	if len(completion.Choices) == 0 {
		return InterpretResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned no choices", nil)
	}

	recommendation := strings.TrimSpace(completion.Choices[0].Message.Content)
	if recommendation == "" {
		return InterpretResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned an empty recommendation", nil)
	}
	return InterpretResponse{Recommendation: recommendation}, nil
}

func (s *service) QuickPrompts(ctx context.Context, req InterpretRequest) (PromptsResponse, error) {
	mood, err := normalizeVibe(req.Vibe)
	if err != nil {
		return PromptsResponse{}, err
	}

	key := strings.ToLower(mood)
	if cached, ok, cacheErr := s.store.GetPrompts(ctx, key); cacheErr != nil {
		s.logger.Warn("prompt cache read failed", "vibe", key, "error", cacheErr)
	} else if ok {
		return PromptsResponse{Prompts: cached, Cached: true}, nil
	}

	instruction := fmt.Sprintf(
		"Based on the user's current vibe, suggest %d diverse and interesting questions they could ask a travel assistant. The prompts should be short, like \"Find a quiet coffee shop\" or \"Any live music tonight?\". Respond ONLY with a JSON array of %d strings.",
		s.cfg.PromptCount, s.cfg.PromptCount,
	)
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: "You are a creative assistant that generates conversation starters. " + instruction},
			{Role: "user", Content: "Vibe: " + mood},
		},
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConfig) {
			return PromptsResponse{}, err
		}
		return PromptsResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}
	if len(completion.Choices) == 0 {
		return PromptsResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned no choices", nil)
	}

	prompts, err := parsePrompts(completion.Choices[0].Message.Content, s.cfg.PromptCount)
	if err != nil {
		return PromptsResponse{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt prompt list malformed", err)
	}

	if err := s.store.SavePrompts(ctx, key, prompts); err != nil {
		s.logger.Warn("prompt cache write failed", "vibe", key, "error", err)
	}
	return PromptsResponse{Prompts: prompts}, nil
}

func normalizeVibe(raw string) (string, error) {
	mood := strings.TrimSpace(raw)
	if mood == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "vibe cannot be empty", nil)
	}
	return mood, nil
}

func parsePrompts(raw string, want int) ([]string, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	sanitized = strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))

	var items []string
	if err := json.Unmarshal([]byte(sanitized), &items); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable prompts in %q", raw)
	}
	if len(out) > want {
		out = out[:want]
	}
	return out, nil
}
