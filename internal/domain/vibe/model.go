package vibe

import "time"

// Config wires runtime settings for the vibe domain.
type Config struct {
	Model       string
	Temperature float32
	Prompt      string
	PromptCount int
	CacheTTL    time.Duration
}

// InterpretRequest carries the mood tag selected by the user.
type InterpretRequest struct {
	Vibe string `json:"vibe"`
}

// InterpretResponse suggests an activity type matching the mood.
type InterpretResponse struct {
	Recommendation string `json:"recommendation"`
}

// PromptsResponse is a set of short conversation starters for a mood.
type PromptsResponse struct {
	Prompts []string `json:"prompts"`
	Cached  bool     `json:"cached"`
}
