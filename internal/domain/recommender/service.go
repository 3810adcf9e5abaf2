package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
	"github.com/yanqian/wanderwise/pkg/metrics"
)

// Service exposes the recommendation pipeline.
type Service interface {
	Recommend(ctx context.Context, req Request) (Response, error)
	History(ctx context.Context) ([]QueryEntry, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter estimates prompt token counts for usage reporting.
type TokenCounter interface {
	Count(text string) int
}

// QueryLog records every answered request for the history endpoint.
type QueryLog interface {
	Record(ctx context.Context, entry QueryEntry) error
	Recent(ctx context.Context, limit int) ([]QueryEntry, error)
}

type service struct {
	cfg     Config
	client  ChatClient
	tool    *EventSearchTool
	tokens  TokenCounter
	history QueryLog
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires up the recommendation domain.
func NewService(cfg Config, client ChatClient, tool *EventSearchTool, tokens TokenCounter, history QueryLog, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		client:  client,
		tool:    tool,
		tokens:  tokens,
		history: history,
		logger:  logger.With("component", "recommender.service"),
		now:     time.Now,
	}
}

func (s *service) Recommend(ctx context.Context, req Request) (Response, error) {
	if err := validateRequest(req); err != nil {
		return Response{}, err
	}

	state := StatePending
	messages := []chatgpt.Message{
		{Role: "system", Content: s.buildSystemPrompt()},
		{Role: "user", Content: buildUserPrompt(req)},
	}
	estimate := s.estimatePromptTokens(messages)
	tools := []chatgpt.Tool{s.tool.Definition()}

	var (
		final chatgpt.Message
		usage chatgpt.Usage
	)
	for round := 0; ; round++ {
		completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Messages:    messages,
			Temperature: s.cfg.Temperature,
			Tools:       tools,
		})
		if err != nil {
			s.transition(&state, StateFailed)
			if apperrors.IsCode(err, apperrors.CodeConfig) {
				return Response{}, err
			}
			return Response{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
		}
		if len(completion.Choices) == 0 {
			s.transition(&state, StateFailed)
			return Response{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned no choices", nil)
		}
		usage = accumulateUsage(usage, completion.Usage)

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			final = msg
			break
		}
		if round >= s.cfg.MaxToolRounds {
			s.transition(&state, StateFailed)
			return Response{}, apperrors.Wrap(apperrors.CodeLLM, fmt.Sprintf("model exceeded %d tool rounds", s.cfg.MaxToolRounds), nil)
		}

		s.transition(&state, StateToolCallRequested)
		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result, err := s.dispatchToolCall(ctx, call)
			if err != nil {
				s.transition(&state, StateFailed)
				return Response{}, err
			}
			messages = append(messages, chatgpt.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
		s.transition(&state, StateToolResultReceived)
	}

	resp, err := s.decodeResponse(req, final.Content)
	if err != nil {
		s.transition(&state, StateFailed)
		return Response{}, err
	}
	resp.TokenUsage = buildUsage(estimate, usage)
	s.transition(&state, StateValidated)

	s.recordHistory(ctx, req, resp)
	return resp, nil
}

func (s *service) History(ctx context.Context) ([]QueryEntry, error) {
	return s.history.Recent(ctx, s.cfg.HistoryLimit)
}

func (s *service) dispatchToolCall(ctx context.Context, call chatgpt.ToolCall) (string, error) {
	if call.Function.Name != EventSearchToolName {
		return "", apperrors.Wrap(apperrors.CodeLLM, "model requested unknown tool "+call.Function.Name, nil)
	}
	return s.tool.Invoke(ctx, call.Function.Arguments)
}

// decodeResponse enforces the response contract: fence-stripped JSON
// validated against the declared schema, and recommendations may only
// be empty when the request carried no location at all.
func (s *service) decodeResponse(req Request, content string) (Response, error) {
	raw := []byte(stripFences(content))
	if err := validateResponsePayload(raw); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "generated response not decodable", err)
	}

	if len(resp.Recommendations) == 0 {
		if req.HasCoordinates() {
			return Response{}, apperrors.Wrap(apperrors.CodeValidation, "generated response has no recommendations despite a known location", nil)
		}
		if strings.TrimSpace(resp.Message) == "" {
			return Response{}, apperrors.Wrap(apperrors.CodeValidation, "generated response has neither recommendations nor a follow-up message", nil)
		}
	}

	for i := range resp.Recommendations {
		if strings.TrimSpace(resp.Recommendations[i].Traffic) == "" {
			resp.Recommendations[i].Traffic = "unknown"
		}
		if strings.TrimSpace(resp.Recommendations[i].Busyness) == "" {
			resp.Recommendations[i].Busyness = "unknown"
		}
	}
	return resp, nil
}

func (s *service) transition(state *GenerationState, next GenerationState) {
	if state.Terminal() {
		return
	}
	s.logger.Debug("generation state changed", "from", string(*state), "to", string(next))
	*state = next
}

func (s *service) recordHistory(ctx context.Context, req Request, resp Response) {
	entry := QueryEntry{
		ID:        uuid.NewString(),
		Query:     req.Query,
		City:      resp.City,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("query log write failed", "error", err)
	}
}

func (s *service) estimatePromptTokens(messages []chatgpt.Message) int {
	if s.tokens == nil {
		return 0
	}
	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}
	return s.tokens.Count(builder.String())
}

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.Prompt)
	enforcer := ` Respond ONLY with valid minified JSON using this shape: {"city":string,"message":string,"recommendations":[{"name":string,"description":string,"weather":{"temp":number,"condition":"sunny"|"cloudy"|"rainy"},"traffic":string,"busyness":string}]}. Omit keys you cannot fill instead of inventing values. If latitude and longitude are provided, resolve the city they fall in and set the city field; when the user's request names a place or city explicitly, that named location takes precedence over the coordinates. If no location information is available at all, ask the user for their location in the message field and return an empty recommendations array. Never return plain text or other fields.`
	return base + enforcer
}

func buildUserPrompt(req Request) string {
	var builder strings.Builder
	builder.WriteString("Request: ")
	builder.WriteString(strings.TrimSpace(req.Query))
	if req.HasCoordinates() {
		builder.WriteString(fmt.Sprintf("\nLatitude: %.6f\nLongitude: %.6f", *req.Latitude, *req.Longitude))
	}
	if vibe := strings.TrimSpace(req.Vibe); vibe != "" {
		builder.WriteString("\nCurrent vibe: ")
		builder.WriteString(vibe)
	}
	return builder.String()
}

func accumulateUsage(total, next chatgpt.Usage) chatgpt.Usage {
	total.PromptTokens += next.PromptTokens
	total.CompletionTokens += next.CompletionTokens
	total.TotalTokens += next.TotalTokens
	return total
}

func buildUsage(estimate int, usage chatgpt.Usage) *metrics.TokenUsage {
	out := metrics.TokenUsage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	if out.PromptTokens == 0 {
		out.PromptTokens = estimate
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.PromptTokens + out.CompletionTokens
	}
	if out.IsZero() {
		return nil
	}
	return &out
}
