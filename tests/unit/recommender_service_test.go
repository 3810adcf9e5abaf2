package unit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
)

const recommendationPayload = `{"city":"San Francisco","recommendations":[` +
	`{"name":"Museum of Modern Art","description":"Iconic modern art.","weather":{"temp":22,"condition":"cloudy"},"traffic":"light","busyness":"moderate"}]}`

func TestRecommendFullPipeline(t *testing.T) {
	client := &stubChatClient{
		responses: []chatgpt.ChatCompletionResponse{
			completion(chatgpt.Message{
				Role: "assistant",
				ToolCalls: []chatgpt.ToolCall{{
					ID:       "call_1",
					Type:     "function",
					Function: chatgpt.ToolCallDefinition{Name: recommender.EventSearchToolName, Arguments: `{"query":"live music san francisco"}`},
				}},
			}),
			completion(chatgpt.Message{Role: "assistant", Content: recommendationPayload}),
		},
	}
	searcher := &stubSearcher{events: []recommender.Event{{Name: "Jazz night", Summary: "Evening set downtown."}}}
	history := &recordingLog{}

	lat, lon := 37.7749, -122.4194
	svc := newRecommender(client, searcher, history)
	resp, err := svc.Recommend(context.Background(), recommender.Request{Query: "things to do tonight", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	require.Equal(t, "San Francisco", resp.City)
	require.Len(t, resp.Recommendations, 1)
	require.Equal(t, 1, searcher.calls)

	// the answered query lands in the history log
	entries, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "things to do tonight", entries[0].Query)
	require.Equal(t, "San Francisco", entries[0].City)
	require.NotEmpty(t, entries[0].ID)
}

func TestRecommendRejectsUnparseableOutput(t *testing.T) {
	client := &stubChatClient{
		responses: []chatgpt.ChatCompletionResponse{
			completion(chatgpt.Message{Role: "assistant", Content: "I think you should visit the park."}),
		},
	}
	svc := newRecommender(client, &stubSearcher{}, &recordingLog{})

	_, err := svc.Recommend(context.Background(), recommender.Request{Query: "parks"})
	require.Error(t, err)
}

func newRecommender(client recommender.ChatClient, searcher recommender.EventSearcher, history recommender.QueryLog) recommender.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := recommender.Config{
		Model:         "gpt-4o-mini",
		Temperature:   0.4,
		Prompt:        "You are a local guide.",
		MaxToolRounds: 3,
		HistoryLimit:  10,
	}
	tool := recommender.NewEventSearchTool(searcher, logger)
	return recommender.NewService(cfg, client, tool, fixedCounter{}, history, logger)
}

func completion(msg chatgpt.Message) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []struct {
			Message chatgpt.Message `json:"message"`
		}{
			{Message: msg},
		},
		Usage: chatgpt.Usage{PromptTokens: 40, CompletionTokens: 60, TotalTokens: 100},
	}
}

type stubChatClient struct {
	responses []chatgpt.ChatCompletionResponse
	calls     int
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	if s.calls >= len(s.responses) {
		return chatgpt.ChatCompletionResponse{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type stubSearcher struct {
	events []recommender.Event
	calls  int
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]recommender.Event, error) {
	s.calls++
	return s.events, nil
}

type fixedCounter struct{}

func (fixedCounter) Count(text string) int { return len(text) / 4 }

type recordingLog struct {
	mu      sync.Mutex
	entries []recommender.QueryEntry
}

func (l *recordingLog) Record(_ context.Context, entry recommender.QueryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *recordingLog) Recent(_ context.Context, limit int) ([]recommender.QueryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]recommender.QueryEntry, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out, nil
}
