package recommender

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
)

// EventSearchToolName is the function name declared to the model.
const EventSearchToolName = "search_events"

// EventSearcher is the external event directory capability.
type EventSearcher interface {
	Search(ctx context.Context, query string) ([]Event, error)
}

// EventSearchTool exposes the event directory to the generation engine
// as a callable capability with a declared input/output schema. The
// engine may invoke it autonomously, zero or more times per run.
type EventSearchTool struct {
	searcher EventSearcher
	logger   *slog.Logger
}

// NewEventSearchTool builds the tool adapter.
func NewEventSearchTool(searcher EventSearcher, logger *slog.Logger) *EventSearchTool {
	return &EventSearchTool{
		searcher: searcher,
		logger:   logger.With("component", "recommender.eventtool"),
	}
}

// Definition returns the tool declaration handed to the model.
func (t *EventSearchTool) Definition() chatgpt.Tool {
	return chatgpt.Tool{
		Type: "function",
		Function: chatgpt.ToolFunction{
			Name:        EventSearchToolName,
			Description: "Get a list of live events based on a search query.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"query"},
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": `The search query for events, e.g. "concerts in SF"`,
					},
				},
			},
		},
	}
}

type toolArguments struct {
	Query string `json:"query"`
}

type toolResult struct {
	Events []Event `json:"events"`
}

// Invoke runs a search and serializes the result for the tool message.
// Upstream failures have already been softened to an empty list by the
// searcher; only a configuration error propagates.
func (t *EventSearchTool) Invoke(ctx context.Context, arguments string) (string, error) {
	var args toolArguments
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		t.logger.Warn("model sent unusable tool arguments", "arguments", arguments)
		return encodeToolResult(nil), nil
	}

	events, err := t.searcher.Search(ctx, args.Query)
	if err != nil {
		return "", err
	}
	t.logger.Info("event search completed", "query", args.Query, "hits", len(events))
	return encodeToolResult(events), nil
}

func encodeToolResult(events []Event) string {
	if events == nil {
		events = []Event{}
	}
	payload, err := json.Marshal(toolResult{Events: events})
	if err != nil {
		return `{"events":[]}`
	}
	return string(payload)
}
