package recommender

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

const validPayload = `{"city":"San Francisco","recommendations":[` +
	`{"name":"Museum of Modern Art","description":"Iconic modern art.","weather":{"temp":22,"condition":"cloudy"},"traffic":"light","busyness":"moderate"},` +
	`{"name":"City Park Bandshell","description":"Live music outdoors.","weather":{"temp":24,"condition":"sunny"}}]}`

func TestRecommendWithToolRound(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []chatgpt.ChatCompletionResponse{
			completionWith(chatgpt.Message{
				Role: "assistant",
				ToolCalls: []chatgpt.ToolCall{{
					ID:   "call_1",
					Type: "function",
					Function: chatgpt.ToolCallDefinition{
						Name:      EventSearchToolName,
						Arguments: `{"query":"live music in San Francisco"}`,
					},
				}},
			}),
			completionWith(chatgpt.Message{Role: "assistant", Content: validPayload}),
		},
	}
	searcher := &stubSearcher{events: []Event{{Name: "Jazz Night", URL: "https://example.com/jazz"}}}
	history := newMemoryLog()
	svc := newTestService(chatStub, searcher, history)

	lat, lon := 37.7749, -122.4194
	resp, err := svc.Recommend(context.Background(), Request{Query: "Any live music tonight?", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	require.Equal(t, "San Francisco", resp.City)
	require.Len(t, resp.Recommendations, 2)

	// traffic/busyness fall back to "unknown" when the model omits them
	require.Equal(t, "light", resp.Recommendations[0].Traffic)
	require.Equal(t, "unknown", resp.Recommendations[1].Traffic)
	require.Equal(t, "unknown", resp.Recommendations[1].Busyness)

	require.Equal(t, []string{"live music in San Francisco"}, searcher.queries)
	require.Equal(t, 2, chatStub.calls)

	// the second call carries the assistant tool request and the tool result
	second := chatStub.requests[1]
	require.Equal(t, "tool", second.Messages[len(second.Messages)-1].Role)
	require.Equal(t, "call_1", second.Messages[len(second.Messages)-1].ToolCallID)
	require.Contains(t, second.Messages[len(second.Messages)-1].Content, "Jazz Night")

	entries, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Any live music tonight?", entries[0].Query)
	require.Equal(t, "San Francisco", entries[0].City)
}

func TestRecommendSucceedsWhenToolReturnsNothing(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []chatgpt.ChatCompletionResponse{
			completionWith(chatgpt.Message{
				Role: "assistant",
				ToolCalls: []chatgpt.ToolCall{{
					ID:       "call_1",
					Type:     "function",
					Function: chatgpt.ToolCallDefinition{Name: EventSearchToolName, Arguments: `{"query":"concerts"}`},
				}},
			}),
			completionWith(chatgpt.Message{Role: "assistant", Content: validPayload}),
		},
	}
	// upstream failure already softened to an empty list
	searcher := &stubSearcher{}
	svc := newTestService(chatStub, searcher, newMemoryLog())

	resp, err := svc.Recommend(context.Background(), Request{Query: "concerts nearby"})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 2)
}

func TestRecommendStripsFences(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []chatgpt.ChatCompletionResponse{
			completionWith(chatgpt.Message{Role: "assistant", Content: "```json\n" + validPayload + "\n```"}),
		},
	}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	resp, err := svc.Recommend(context.Background(), Request{Query: "things to do in San Francisco"})
	require.NoError(t, err)
	require.Equal(t, "San Francisco", resp.City)
}

func TestRecommendMalformedOutputFailsValidation(t *testing.T) {
	for name, content := range map[string]string{
		"plain_text":      "Here are some places you might enjoy!",
		"bad_condition":   `{"recommendations":[{"name":"Cafe","description":"Quiet.","weather":{"temp":20,"condition":"foggy"}}]}`,
		"missing_weather": `{"recommendations":[{"name":"Cafe","description":"Quiet."}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			chatStub := &stubChatClient{
				responses: []chatgpt.ChatCompletionResponse{
					completionWith(chatgpt.Message{Role: "assistant", Content: content}),
				},
			}
			svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

			_, err := svc.Recommend(context.Background(), Request{Query: "quiet coffee shop"})
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
		})
	}
}

func TestRecommendEmptyListNeedsMissingLocation(t *testing.T) {
	payload := `{"message":"Where are you right now?","recommendations":[]}`

	t.Run("without_location_ok", func(t *testing.T) {
		chatStub := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
			completionWith(chatgpt.Message{Role: "assistant", Content: payload}),
		}}
		svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

		resp, err := svc.Recommend(context.Background(), Request{Query: "somewhere fun"})
		require.NoError(t, err)
		require.Empty(t, resp.Recommendations)
		require.Equal(t, "Where are you right now?", resp.Message)
	})

	t.Run("with_coordinates_rejected", func(t *testing.T) {
		chatStub := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
			completionWith(chatgpt.Message{Role: "assistant", Content: payload}),
		}}
		svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

		lat, lon := 40.0, -74.0
		_, err := svc.Recommend(context.Background(), Request{Query: "somewhere fun", Latitude: &lat, Longitude: &lon})
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})
}

func TestRecommendRejectsInvalidRequestBeforeModelCall(t *testing.T) {
	chatStub := &stubChatClient{}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	for name, req := range map[string]Request{
		"empty_query":  {Query: ""},
		"bad_latitude": {Query: "parks", Latitude: ptr(123.0), Longitude: ptr(10.0)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Recommend(context.Background(), req)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
		})
	}
	require.Zero(t, chatStub.calls)
}

func TestRecommendUnknownToolFails(t *testing.T) {
	chatStub := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		completionWith(chatgpt.Message{
			Role: "assistant",
			ToolCalls: []chatgpt.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: chatgpt.ToolCallDefinition{Name: "send_email", Arguments: `{}`},
			}},
		}),
	}}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	_, err := svc.Recommend(context.Background(), Request{Query: "parks"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}

func TestRecommendToolRoundLimit(t *testing.T) {
	toolCall := completionWith(chatgpt.Message{
		Role: "assistant",
		ToolCalls: []chatgpt.ToolCall{{
			ID:       "call_n",
			Type:     "function",
			Function: chatgpt.ToolCallDefinition{Name: EventSearchToolName, Arguments: `{"query":"events"}`},
		}},
	})
	chatStub := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{toolCall, toolCall, toolCall, toolCall}}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	_, err := svc.Recommend(context.Background(), Request{Query: "events"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}

func TestRecommendConfigErrorPropagates(t *testing.T) {
	chatStub := &stubChatClient{err: apperrors.Wrap(apperrors.CodeConfig, "chatgpt api key is not configured", nil)}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	_, err := svc.Recommend(context.Background(), Request{Query: "parks"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfig))
}

func TestPromptsCarryLocationPrecedenceAndVibe(t *testing.T) {
	chatStub := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		completionWith(chatgpt.Message{Role: "assistant", Content: validPayload}),
	}}
	svc := newTestService(chatStub, &stubSearcher{}, newMemoryLog())

	lat, lon := 48.8566, 2.3522
	_, err := svc.Recommend(context.Background(), Request{Query: "cafes in Lisbon", Latitude: &lat, Longitude: &lon, Vibe: "Relaxed"})
	require.NoError(t, err)

	first := chatStub.requests[0]
	require.Equal(t, "system", first.Messages[0].Role)
	require.Contains(t, first.Messages[0].Content, "takes precedence over the coordinates")
	require.Contains(t, first.Messages[1].Content, "cafes in Lisbon")
	require.Contains(t, first.Messages[1].Content, "48.856600")
	require.Contains(t, first.Messages[1].Content, "Current vibe: Relaxed")
	require.Len(t, first.Tools, 1)
	require.Equal(t, EventSearchToolName, first.Tools[0].Function.Name)
}

func newTestService(chat ChatClient, searcher EventSearcher, history QueryLog) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &service{
		cfg: Config{
			Model:         "gpt-test",
			Temperature:   0.4,
			Prompt:        "You are WanderWise.",
			MaxToolRounds: 3,
			HistoryLimit:  10,
		},
		client:  chat,
		tool:    NewEventSearchTool(searcher, logger),
		history: history,
		logger:  logger,
		now:     func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func completionWith(msg chatgpt.Message) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []struct {
			Message chatgpt.Message `json:"message"`
		}{
			{Message: msg},
		},
	}
}

func ptr(v float64) *float64 { return &v }

type stubChatClient struct {
	responses []chatgpt.ChatCompletionResponse
	requests  []chatgpt.ChatCompletionRequest
	err       error
	calls     int
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	if s.calls >= len(s.responses) {
		return chatgpt.ChatCompletionResponse{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type stubSearcher struct {
	events  []Event
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.queries = append(s.queries, query)
	return s.events, nil
}

type memoryLog struct {
	mu      sync.Mutex
	entries []QueryEntry
}

func newMemoryLog() *memoryLog { return &memoryLog{} }

func (m *memoryLog) Record(_ context.Context, entry QueryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLog) Recent(_ context.Context, limit int) ([]QueryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]QueryEntry, limit)
	copy(out, m.entries[len(m.entries)-limit:])
	return out, nil
}
